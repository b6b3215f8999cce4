package fuzzy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/smartdiet/pkg/models"
)

// Inputs is the crisp value bundle for the default rule base.
type Inputs struct {
	BMI      float64 `json:"bmi"`
	Age      float64 `json:"age"`
	Activity float64 `json:"activity"`
	Satiety  float64 `json:"satiety"`
}

func (in Inputs) values() map[string]float64 {
	return map[string]float64{
		VarBMI:      in.BMI,
		VarAge:      in.Age,
		VarActivity: in.Activity,
		VarSatiety:  in.Satiety,
	}
}

// Clamp forces every input into its variable's universe. Variables the rule
// base does not declare are left untouched.
func (rb *RuleBase) Clamp(in Inputs) Inputs {
	clamp := func(name string, x float64) float64 {
		if v, ok := rb.inputs[name]; ok {
			return v.Clamp(x)
		}
		return x
	}
	return Inputs{
		BMI:      clamp(VarBMI, in.BMI),
		Age:      clamp(VarAge, in.Age),
		Activity: clamp(VarActivity, in.Activity),
		Satiety:  clamp(VarSatiety, in.Satiety),
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	// Score is the defuzzified crisp value on the output universe.
	Score float64 `json:"score"`
	// Weights are the output terms' memberships evaluated at Score.
	Weights models.DietWeights `json:"weights"`
	// Activations holds each output term's aggregated firing strength.
	Activations models.DietWeights `json:"activations"`
	// Strengths holds each rule's firing strength, in rule-table order.
	Strengths []float64 `json:"strengths"`
}

// Evaluate runs the rule base against crisp inputs and returns fresh
// results. It keeps no state between calls.
func Evaluate(rb *RuleBase, in Inputs) (Result, error) {
	return evaluate(rb, in.values())
}

func evaluate(rb *RuleBase, values map[string]float64) (Result, error) {
	for _, name := range rb.order {
		x, ok := values[name]
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrInputsIncomplete, name)
		}
		if u := rb.inputs[name].Universe(); !u.Contains(x) {
			return Result{}, fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRangeInput, name, x, u.Min(), u.Max())
		}
	}

	strengths := make([]float64, len(rb.rules))
	activations := make(models.DietWeights, len(rb.output.terms))
	for _, t := range rb.output.terms {
		activations[models.DietClass(t.Name)] = 0
	}

	for i, rule := range rb.rules {
		strength := 1.0
		for _, c := range rule.If {
			degree, _ := rb.inputs[c.Variable].Degree(c.Term, values[c.Variable])
			strength = math.Min(strength, degree)
		}
		strengths[i] = strength
		activations[rule.Then] = math.Max(activations[rule.Then], strength)
	}

	aggregated := rb.aggregate(activations)
	score, err := centroid(rb.output.universe.points, aggregated)
	if err != nil {
		return Result{}, err
	}
	score = rb.output.Clamp(score)

	return Result{
		Score:       score,
		Weights:     rb.DecodeWeights(score),
		Activations: activations,
		Strengths:   strengths,
	}, nil
}

// aggregate clips every output term at its activation and takes the
// pointwise maximum over the output universe.
func (rb *RuleBase) aggregate(activations models.DietWeights) []float64 {
	points := rb.output.universe.points
	out := make([]float64, len(points))
	for _, t := range rb.output.terms {
		level := activations[models.DietClass(t.Name)]
		if level <= 0 {
			continue
		}
		for i, x := range points {
			out[i] = math.Max(out[i], math.Min(t.MF.Degree(x), level))
		}
	}
	return out
}

// centroid computes the centre of gravity of the piecewise-linear shape
// through (xs[i], ys[i]). Each segment is a trapezoid.
func centroid(xs, ys []float64) (float64, error) {
	areas := make([]float64, 0, len(xs))
	centres := make([]float64, 0, len(xs))
	for i := 1; i < len(xs); i++ {
		x1, x2 := xs[i-1], xs[i]
		y1, y2 := ys[i-1], ys[i]
		if y1+y2 == 0 || x1 == x2 {
			continue
		}
		dx := x2 - x1
		areas = append(areas, dx*(y1+y2)/2)
		centres = append(centres, x1+dx*(y1+2*y2)/(3*(y1+y2)))
	}

	total := floats.Sum(areas)
	if total <= 0 {
		return 0, ErrNoRuleFired
	}
	return floats.Dot(centres, areas) / total, nil
}

// DecodeWeights converts a crisp score back into one soft weight per diet
// class by evaluating each output term at the score.
func (rb *RuleBase) DecodeWeights(score float64) models.DietWeights {
	weights := make(models.DietWeights, len(rb.output.terms))
	for _, t := range rb.output.terms {
		weights[models.DietClass(t.Name)] = t.MF.Degree(score)
	}
	return weights
}
