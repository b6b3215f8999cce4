package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// DietClass is one of the four diet types the fuzzy profiler can favour.
type DietClass string

const (
	DietVegan       DietClass = "vegan"
	DietBalanced    DietClass = "balanced"
	DietHighProtein DietClass = "high_protein"
	DietLowCarb     DietClass = "low_carb"
)

// DietClasses lists every diet class in canonical order. The order is also
// the tie-break order used by DietWeights.Dominant.
var DietClasses = []DietClass{DietVegan, DietBalanced, DietHighProtein, DietLowCarb}

// ParseDietClass maps a free-form recipe tag ("High_Protein ", "LOW_CARB")
// to a known class. ok is false for tags outside the four classes.
func ParseDietClass(tag string) (DietClass, bool) {
	folded := DietClass(foldTag(tag))
	for _, class := range DietClasses {
		if class == folded {
			return class, true
		}
	}
	return "", false
}

// DietWeights maps each diet class to a non-negative weight. Weights are
// not normalised.
type DietWeights map[DietClass]float64

// EqualDietWeights is the documented fallback distribution used when the
// fuzzy engine cannot produce a crisp score.
func EqualDietWeights() DietWeights {
	weights := make(DietWeights, len(DietClasses))
	for _, class := range DietClasses {
		weights[class] = 0.25
	}
	return weights
}

// Weight returns the weight for a recipe tag, or 0 when the tag is unknown.
func (w DietWeights) Weight(tag string) (float64, bool) {
	class, ok := ParseDietClass(tag)
	if !ok {
		return 0, false
	}
	return w[class], true
}

// Dominant returns the class with the highest weight. Equal weights resolve
// to the earlier class in DietClasses.
func (w DietWeights) Dominant() DietClass {
	best := DietClasses[0]
	for _, class := range DietClasses[1:] {
		if w[class] > w[best] {
			best = class
		}
	}
	return best
}

func foldTag(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
