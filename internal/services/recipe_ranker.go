package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/internal/fuzzy"
	"github.com/temcen/smartdiet/internal/ml"
	"github.com/temcen/smartdiet/pkg/models"
)

// ErrPreferenceScoreMissing fails a ranking request when the preference
// scorer errors or returns an unusable batch.
var ErrPreferenceScoreMissing = errors.New("preference score missing")

// CalorieCurve rewards a recipe's calories according to the user's BMI
// band.
type CalorieCurve struct {
	Target          float64
	UnderweightCeil float64
	OverweightCap   float64
	UnderweightBMI  float64
	OverweightBMI   float64
}

func DefaultCalorieCurve() CalorieCurve {
	return CalorieCurve{
		Target:          450,
		UnderweightCeil: 1000,
		OverweightCap:   600,
		UnderweightBMI:  18.5,
		OverweightBMI:   25,
	}
}

// Bonus rewards underweight users for calories up to the ceiling,
// overweight users for staying under the cap and everyone else for being
// close to the target. The underweight branch is only capped from above,
// so negative calories give a negative bonus. NaN inputs score 0.
func (c CalorieCurve) Bonus(calories, bmi float64) float64 {
	if math.IsNaN(calories) || math.IsNaN(bmi) {
		return 0
	}
	switch {
	case bmi < c.UnderweightBMI:
		return math.Min(calories/c.UnderweightCeil, 1)
	case bmi > c.OverweightBMI:
		return math.Max(0, (c.OverweightCap-calories)/c.OverweightCap)
	default:
		return math.Max(0, 1-math.Abs(calories-c.Target)/c.Target)
	}
}

// CalorieBonus applies the default curve.
func CalorieBonus(calories, bmi float64) float64 {
	return DefaultCalorieCurve().Bonus(calories, bmi)
}

// QuickBonus is 1 for recipes ready within the default 15 minutes.
func QuickBonus(prepMinutes float64) float64 {
	return quickBonus(prepMinutes, 15)
}

func quickBonus(prepMinutes, limit float64) float64 {
	if prepMinutes <= limit {
		return 1
	}
	return 0
}

// FeatureVector builds the preference model input for one profile/recipe
// pair. The column order is fixed by the trained model.
func FeatureVector(profile models.UserProfile, recipe models.Recipe) []float64 {
	n := recipe.Nutrition
	return []float64{
		profile.Age,
		profile.GenderCode(),
		profile.BMI(),
		profile.ActivityCode(),
		n.Calories,
		n.TotalFat,
		n.Sugar,
		n.Sodium,
		n.Protein,
		n.SaturatedFat,
		n.Carbs,
	}
}

// RecipeRanker scores candidates with the composite formula
// W1*dietFit + W2*calorie + W3*quick + W4*preference.
type RecipeRanker struct {
	scorer       ml.PreferenceScorer
	weights      config.RankingWeights
	curve        CalorieCurve
	quickMinutes float64
	metrics      *Metrics
	logger       *logrus.Logger
}

func NewRecipeRanker(cfg *config.RankingConfig, scorer ml.PreferenceScorer, metrics *Metrics, logger *logrus.Logger) *RecipeRanker {
	return &RecipeRanker{
		scorer:  scorer,
		weights: cfg.Weights,
		curve: CalorieCurve{
			Target:          cfg.Calorie.Target,
			UnderweightCeil: cfg.Calorie.UnderweightCeil,
			OverweightCap:   cfg.Calorie.OverweightCap,
			UnderweightBMI:  cfg.Calorie.UnderweightBMI,
			OverweightBMI:   cfg.Calorie.OverweightBMI,
		},
		quickMinutes: cfg.QuickPrepMinutes,
		metrics:      metrics,
		logger:       logger,
	}
}

// Recommend returns the topN recipes by descending composite score. Equal
// scores keep their input order. The preference scorer is called once for
// the whole candidate set and not at all when there is nothing to rank.
func (r *RecipeRanker) Recommend(
	ctx context.Context,
	profile models.UserProfile,
	weights models.DietWeights,
	recipes []models.Recipe,
	topN int,
) ([]models.ScoredRecipe, error) {
	if topN <= 0 || len(recipes) == 0 {
		return []models.ScoredRecipe{}, nil
	}

	start := time.Now()
	defer func() { r.metrics.ObserveRanking(time.Since(start)) }()

	prefs, err := r.preferences(ctx, profile, recipes)
	if err != nil {
		return nil, err
	}

	bmi := profile.BMI()
	scored := make([]models.ScoredRecipe, len(recipes))
	for i, recipe := range recipes {
		dietFit, ok := weights.Weight(recipe.DietType)
		if !ok {
			r.metrics.UnknownDietTag()
			r.logger.WithFields(logrus.Fields{
				"recipe_id": recipe.ID,
				"diet_type": recipe.DietType,
			}).Debug("Unknown diet tag, diet fit set to 0")
		}

		breakdown := models.ScoreBreakdown{
			DietFit:      r.weights.DietFit * dietFit,
			CalorieBonus: r.weights.Calorie * r.curve.Bonus(recipe.Nutrition.Calories, bmi),
			QuickBonus:   r.weights.Quick * quickBonus(recipe.PrepTime, r.quickMinutes),
			Preference:   r.weights.Preference * prefs[i],
		}
		scored[i] = models.ScoredRecipe{
			Recipe:    recipe,
			Score:     breakdown.DietFit + breakdown.CalorieBonus + breakdown.QuickBonus + breakdown.Preference,
			Breakdown: breakdown,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topN < len(scored) {
		scored = scored[:topN]
	}
	for i := range scored {
		scored[i].Position = i + 1
	}

	r.logger.WithFields(logrus.Fields{
		"candidates": len(recipes),
		"returned":   len(scored),
	}).Debug("Recipes ranked")

	return scored, nil
}

func (r *RecipeRanker) preferences(ctx context.Context, profile models.UserProfile, recipes []models.Recipe) ([]float64, error) {
	vectors := make([][]float64, len(recipes))
	for i, recipe := range recipes {
		vectors[i] = FeatureVector(profile, recipe)
	}

	prefs, err := r.scorer.Score(ctx, vectors)
	if err == nil && len(prefs) != len(vectors) {
		err = fmt.Errorf("scorer returned %d scores for %d recipes", len(prefs), len(vectors))
	}
	if err == nil {
		for i, p := range prefs {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				err = fmt.Errorf("non-finite score for recipe %s", recipes[i].ID)
				break
			}
		}
	}
	r.metrics.PreferenceBatch(err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPreferenceScoreMissing, err)
	}

	out := make([]float64, len(prefs))
	for i, p := range prefs {
		out[i] = fuzzy.Clamp(p, 0, 1)
	}
	return out, nil
}
