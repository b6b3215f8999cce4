package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/pkg/models"
)

// ExplanationType names the signal an explanation is built from.
type ExplanationType string

const (
	DietFitExplanation    ExplanationType = "diet_fit"
	CalorieExplanation    ExplanationType = "calorie"
	QuickExplanation      ExplanationType = "quick"
	PreferenceExplanation ExplanationType = "preference"
	GenericExplanation    ExplanationType = "generic"
)

// ExplanationData is one candidate reason for a ranking, with the share of
// the composite score it accounts for.
type ExplanationData struct {
	Type         ExplanationType
	Contribution float64
	Share        float64
}

// ExplanationService turns score breakdowns into short texts.
type ExplanationService struct {
	curve        CalorieCurve
	quickMinutes float64
	logger       *logrus.Logger
}

func NewExplanationService(cfg *config.RankingConfig, logger *logrus.Logger) *ExplanationService {
	return &ExplanationService{
		curve: CalorieCurve{
			Target:          cfg.Calorie.Target,
			UnderweightCeil: cfg.Calorie.UnderweightCeil,
			OverweightCap:   cfg.Calorie.OverweightCap,
			UnderweightBMI:  cfg.Calorie.UnderweightBMI,
			OverweightBMI:   cfg.Calorie.OverweightBMI,
		},
		quickMinutes: cfg.QuickPrepMinutes,
		logger:       logger,
	}
}

// GenerateExplanations fills Explanation on every scored recipe in place.
func (es *ExplanationService) GenerateExplanations(diet models.DietProfile, scored []models.ScoredRecipe) []models.ScoredRecipe {
	for i := range scored {
		text := es.Explain(diet, scored[i])
		scored[i].Explanation = &text
	}
	return scored
}

// Explain describes the strongest signal behind one ranking and, when it
// is not the only one, the runner-up.
func (es *ExplanationService) Explain(diet models.DietProfile, sr models.ScoredRecipe) string {
	reasons := es.gatherExplanationData(sr)
	if len(reasons) == 0 {
		return es.generateExplanationText(diet, sr, ExplanationData{Type: GenericExplanation})
	}

	parts := []string{es.generateExplanationText(diet, sr, reasons[0])}
	if len(reasons) > 1 && reasons[1].Share >= 0.2 {
		parts = append(parts, es.generateExplanationText(diet, sr, reasons[1]))
	}
	return strings.Join(parts, "; ")
}

// gatherExplanationData lists the non-zero contributions, largest first.
func (es *ExplanationService) gatherExplanationData(sr models.ScoredRecipe) []ExplanationData {
	b := sr.Breakdown
	total := b.DietFit + b.CalorieBonus + b.QuickBonus + b.Preference
	if total <= 0 {
		return nil
	}

	candidates := []ExplanationData{
		{Type: DietFitExplanation, Contribution: b.DietFit},
		{Type: CalorieExplanation, Contribution: b.CalorieBonus},
		{Type: QuickExplanation, Contribution: b.QuickBonus},
		{Type: PreferenceExplanation, Contribution: b.Preference},
	}

	reasons := candidates[:0]
	for _, c := range candidates {
		if c.Contribution <= 0 {
			continue
		}
		c.Share = c.Contribution / total
		reasons = append(reasons, c)
	}

	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Contribution > reasons[j].Contribution
	})
	return reasons
}

func (es *ExplanationService) generateExplanationText(diet models.DietProfile, sr models.ScoredRecipe, data ExplanationData) string {
	switch data.Type {
	case DietFitExplanation:
		return es.generateDietFitText(diet, sr.Recipe)
	case CalorieExplanation:
		return es.generateCalorieText(diet.BMI, sr.Recipe)
	case QuickExplanation:
		return fmt.Sprintf("Ready in %.0f minutes", sr.Recipe.PrepTime)
	case PreferenceExplanation:
		return "Predicted to match what people like you enjoy"
	default:
		return "Fits your overall profile"
	}
}

func (es *ExplanationService) generateDietFitText(diet models.DietProfile, recipe models.Recipe) string {
	class, ok := models.ParseDietClass(recipe.DietType)
	if !ok {
		return "Fits your overall profile"
	}
	if class == diet.Dominant {
		return fmt.Sprintf("Matches your %s profile", humanize(class))
	}
	return fmt.Sprintf("A %s option that suits your profile (weight %.2f)", humanize(class), diet.Weights[class])
}

func (es *ExplanationService) generateCalorieText(bmi float64, recipe models.Recipe) string {
	calories := recipe.Nutrition.Calories
	switch {
	case bmi < es.curve.UnderweightBMI:
		return fmt.Sprintf("%.0f kcal helps you reach a healthy weight", calories)
	case bmi > es.curve.OverweightBMI:
		return fmt.Sprintf("%.0f kcal keeps you under %.0f kcal", calories, es.curve.OverweightCap)
	default:
		return fmt.Sprintf("%.0f kcal is close to the %.0f kcal target", calories, es.curve.Target)
	}
}

func humanize(class models.DietClass) string {
	return strings.ReplaceAll(string(class), "_", "-")
}
