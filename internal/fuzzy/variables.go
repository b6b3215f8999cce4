package fuzzy

import (
	"fmt"

	"github.com/temcen/smartdiet/pkg/models"
)

// Variable names used by the rule base.
const (
	VarBMI      = "bmi"
	VarAge      = "age"
	VarActivity = "activity"
	VarSatiety  = "satiety"
	VarDiet     = "diet_type"
)

// Term is a named fuzzy set on a variable's universe.
type Term struct {
	Name string
	MF   Triangle
}

// Variable is a linguistic variable: a universe plus ordered terms.
type Variable struct {
	name     string
	universe Universe
	terms    []Term
	index    map[string]int
}

// NewVariable checks that every term's break points lie in the universe so
// that memberships stay within [0, 1] across the whole range.
func NewVariable(name string, universe Universe, terms ...Term) (*Variable, error) {
	v := &Variable{
		name:     name,
		universe: universe,
		terms:    make([]Term, 0, len(terms)),
		index:    make(map[string]int, len(terms)),
	}
	for _, term := range terms {
		if _, dup := v.index[term.Name]; dup {
			return nil, fmt.Errorf("variable %s: duplicate term %q", name, term.Name)
		}
		if !universe.Contains(term.MF.Left) || !universe.Contains(term.MF.Right) {
			return nil, fmt.Errorf("%w: variable %s term %s outside [%g, %g]",
				ErrInvalidTriangle, name, term.Name, universe.Min(), universe.Max())
		}
		v.index[term.Name] = len(v.terms)
		v.terms = append(v.terms, term)
	}
	return v, nil
}

func (v *Variable) Name() string       { return v.name }
func (v *Variable) Universe() Universe { return v.universe }

// Terms returns the term names in declaration order.
func (v *Variable) Terms() []string {
	names := make([]string, len(v.terms))
	for i, t := range v.terms {
		names[i] = t.Name
	}
	return names
}

// Term looks up a term by name.
func (v *Variable) Term(name string) (Term, bool) {
	i, ok := v.index[name]
	if !ok {
		return Term{}, false
	}
	return v.terms[i], true
}

// Degree evaluates the named term at x.
func (v *Variable) Degree(term string, x float64) (float64, error) {
	t, ok := v.Term(term)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownTerm, v.name, term)
	}
	return t.MF.Degree(x), nil
}

// Memberships evaluates every term at x.
func (v *Variable) Memberships(x float64) map[string]float64 {
	out := make(map[string]float64, len(v.terms))
	for _, t := range v.terms {
		out[t.Name] = t.MF.Degree(x)
	}
	return out
}

// Clamp forces x into the variable's universe.
func (v *Variable) Clamp(x float64) float64 {
	return v.universe.Clamp(x)
}

func term(name string, left, peak, right float64) Term {
	return Term{Name: name, MF: Triangle{Left: left, Peak: peak, Right: right}}
}

func mustVariable(name string, universe Universe, terms ...Term) *Variable {
	v, err := NewVariable(name, universe, terms...)
	if err != nil {
		panic(err)
	}
	return v
}

// BMIVariable: underweight / normal / overweight / obese on [10, 40].
func BMIVariable() *Variable {
	return mustVariable(VarBMI, mustUniverse(10, 40, 0.1),
		term("underweight", 10, 10, 18.5),
		term("normal", 18, 22, 25),
		term("overweight", 24, 30, 35),
		term("obese", 30, 35, 40),
	)
}

// AgeVariable: young / adult / elderly on [15, 80].
func AgeVariable() *Variable {
	return mustVariable(VarAge, mustUniverse(15, 80, 1),
		term("young", 15, 20, 30),
		term("adult", 25, 40, 55),
		term("elderly", 50, 65, 80),
	)
}

// ActivityVariable: low / medium / high on [0, 10].
func ActivityVariable() *Variable {
	return mustVariable(VarActivity, mustUniverse(0, 10, 1),
		term("low", 0, 2, 4),
		term("medium", 3, 5, 7),
		term("high", 6, 8, 10),
	)
}

// SatietyVariable: low / medium / high on the 0-5 Likert scale.
func SatietyVariable() *Variable {
	return mustVariable(VarSatiety, mustUniverse(0, 5, 1),
		term("low", 0, 1, 2),
		term("medium", 1, 3, 4),
		term("high", 3, 5, 5),
	)
}

// DietVariable is the output axis. Its term names are the diet classes.
func DietVariable() *Variable {
	return mustVariable(VarDiet, mustUniverse(0, 1, 0.1),
		term(string(models.DietVegan), 0, 0, 0.33),
		term(string(models.DietBalanced), 0.2, 0.4, 0.6),
		term(string(models.DietHighProtein), 0.5, 0.7, 0.9),
		term(string(models.DietLowCarb), 0.8, 1, 1),
	)
}

// ActivityValue maps a categorical activity level to the representative
// point on the activity universe. Unknown levels map to Medium.
func ActivityValue(level models.ActivityLevel) float64 {
	switch level {
	case models.ActivityLow:
		return 2
	case models.ActivityHigh:
		return 8
	default:
		return 5
	}
}
