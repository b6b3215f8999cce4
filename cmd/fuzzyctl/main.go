// Command fuzzyctl evaluates the diet rule base for one profile and prints
// the crisp score, per-class weights and every rule's firing strength.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/fuzzy"
	"github.com/temcen/smartdiet/pkg/models"
)

type ruleFiring struct {
	Rule     string  `json:"rule"`
	Strength float64 `json:"strength"`
}

type report struct {
	Inputs      fuzzy.Inputs       `json:"inputs"`
	Clamped     bool               `json:"clamped"`
	Score       float64            `json:"score"`
	Dominant    models.DietClass   `json:"dominant"`
	Weights     models.DietWeights `json:"weights"`
	Activations models.DietWeights `json:"activations"`
	Rules       []ruleFiring       `json:"rules,omitempty"`
}

func main() {
	logger := logrus.New()

	age := flag.Float64("age", 40, "age in years")
	height := flag.Float64("height", 170, "height in cm")
	weight := flag.Float64("weight", 65, "weight in kg")
	activity := flag.String("activity", "Medium", "activity level: Low, Medium or High")
	satiety := flag.Float64("satiety", 3, "satiety rating 0-5")
	clamp := flag.Bool("clamp", false, "clamp inputs into the rule base universes")
	showRules := flag.Bool("rules", false, "include every rule's firing strength")
	flag.Parse()

	profile := models.UserProfile{
		Age:           *age,
		HeightCM:      *height,
		WeightKG:      *weight,
		ActivityLevel: models.ActivityLevel(*activity),
		Satiety:       *satiety,
	}

	rb := fuzzy.DefaultRuleBase()
	inputs := fuzzy.Inputs{
		BMI:      profile.BMI(),
		Age:      profile.Age,
		Activity: fuzzy.ActivityValue(profile.ActivityLevel),
		Satiety:  profile.Satiety,
	}
	if *clamp {
		inputs = rb.Clamp(inputs)
	}

	sim := fuzzy.NewSimulation(rb)
	for name, value := range map[string]float64{
		fuzzy.VarBMI:      inputs.BMI,
		fuzzy.VarAge:      inputs.Age,
		fuzzy.VarActivity: inputs.Activity,
		fuzzy.VarSatiety:  inputs.Satiety,
	} {
		if err := sim.SetInput(name, value); err != nil {
			logger.WithError(err).Fatal("Invalid input, retry with -clamp")
		}
	}
	if err := sim.Compute(); err != nil {
		logger.WithError(err).Fatal("Evaluation failed")
	}
	result, err := sim.Output()
	if err != nil {
		logger.WithError(err).Fatal("No output")
	}

	out := report{
		Inputs:      inputs,
		Clamped:     *clamp,
		Score:       result.Score,
		Dominant:    result.Weights.Dominant(),
		Weights:     result.Weights,
		Activations: result.Activations,
	}
	if *showRules {
		for i, rule := range rb.Rules() {
			out.Rules = append(out.Rules, ruleFiring{Rule: rule.String(), Strength: result.Strengths[i]})
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.WithError(err).Fatal("Failed to write report")
	}
}
