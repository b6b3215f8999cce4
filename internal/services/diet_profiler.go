package services

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/fuzzy"
	"github.com/temcen/smartdiet/pkg/models"
)

// DietProfiler turns a user profile into diet weights: it clamps the
// profile onto the rule base's universes, evaluates the rules and applies
// the equal-weight fallback when nothing fires.
type DietProfiler struct {
	rules           *fuzzy.RuleBase
	fallbackEnabled bool
	metrics         *Metrics
	logger          *logrus.Logger
}

func NewDietProfiler(rules *fuzzy.RuleBase, fallbackEnabled bool, metrics *Metrics, logger *logrus.Logger) *DietProfiler {
	return &DietProfiler{
		rules:           rules,
		fallbackEnabled: fallbackEnabled,
		metrics:         metrics,
		logger:          logger,
	}
}

// Inputs maps a profile onto crisp, in-range rule inputs.
func (p *DietProfiler) Inputs(profile models.UserProfile) fuzzy.Inputs {
	return p.rules.Clamp(fuzzy.Inputs{
		BMI:      profile.BMI(),
		Age:      profile.Age,
		Activity: fuzzy.ActivityValue(profile.ActivityLevel),
		Satiety:  profile.Satiety,
	})
}

// Profile evaluates the rule base for one user. ErrNoRuleFired is absorbed
// by the fallback when enabled; every other error is returned.
func (p *DietProfiler) Profile(profile models.UserProfile) (models.DietProfile, error) {
	bmi := profile.BMI()
	in := p.Inputs(profile)

	res, err := fuzzy.Evaluate(p.rules, in)
	if err != nil {
		if !errors.Is(err, fuzzy.ErrNoRuleFired) || !p.fallbackEnabled {
			return models.DietProfile{}, err
		}

		p.metrics.FuzzyFallback()
		p.logger.WithFields(logrus.Fields{
			"bmi":      in.BMI,
			"age":      in.Age,
			"activity": in.Activity,
			"satiety":  in.Satiety,
		}).Warn("No diet rule fired, using equal diet weights")

		weights := models.EqualDietWeights()
		return models.DietProfile{
			BMI:             bmi,
			Weights:         weights,
			Dominant:        weights.Dominant(),
			FallbackApplied: true,
		}, nil
	}

	score := res.Score
	return models.DietProfile{
		BMI:        bmi,
		CrispScore: &score,
		Weights:    res.Weights,
		Dominant:   res.Weights.Dominant(),
	}, nil
}
