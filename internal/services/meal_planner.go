package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/pkg/models"
)

// Ranker is the ranking step the meal planner runs per slot.
type Ranker interface {
	Recommend(ctx context.Context, profile models.UserProfile, weights models.DietWeights, recipes []models.Recipe, topN int) ([]models.ScoredRecipe, error)
}

// MealPlanner assembles a breakfast, lunch and dinner list for one day.
type MealPlanner struct {
	ranker Ranker
	logger *logrus.Logger
}

func NewMealPlanner(ranker Ranker, logger *logrus.Logger) *MealPlanner {
	return &MealPlanner{ranker: ranker, logger: logger}
}

// PartitionByMeal groups recipes by their case-folded meal tag, keeping
// catalog order within each slot. Recipes with other tags are dropped.
func PartitionByMeal(recipes []models.Recipe) map[models.MealType][]models.Recipe {
	parts := make(map[models.MealType][]models.Recipe, len(models.MealSlots))
	for _, recipe := range recipes {
		slot, ok := models.ParseMealType(recipe.MealType)
		if !ok {
			continue
		}
		parts[slot] = append(parts[slot], recipe)
	}
	return parts
}

// PlanDay ranks each meal slot independently and concatenates the results
// in breakfast, lunch, dinner order. Slots without candidates contribute
// nothing.
func (p *MealPlanner) PlanDay(
	ctx context.Context,
	profile models.UserProfile,
	weights models.DietWeights,
	recipes []models.Recipe,
	perMeal int,
) ([]models.PlanEntry, error) {
	if perMeal <= 0 {
		return []models.PlanEntry{}, nil
	}
	parts := PartitionByMeal(recipes)

	entries := make([]models.PlanEntry, 0, perMeal*len(models.MealSlots))
	for _, slot := range models.MealSlots {
		candidates := parts[slot]
		if len(candidates) == 0 {
			p.logger.WithField("meal_slot", slot).Debug("No candidates for meal slot")
			continue
		}

		ranked, err := p.ranker.Recommend(ctx, profile, weights, candidates, perMeal)
		if err != nil {
			return nil, fmt.Errorf("rank %s: %w", slot, err)
		}
		for _, sr := range ranked {
			entries = append(entries, models.PlanEntry{MealSlot: slot, Scored: sr})
		}
	}

	return entries, nil
}
