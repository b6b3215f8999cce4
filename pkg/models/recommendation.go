package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreBreakdown holds the weighted contribution of each signal to a
// composite score.
type ScoreBreakdown struct {
	DietFit      float64 `json:"diet_fit"`
	CalorieBonus float64 `json:"calorie_bonus"`
	QuickBonus   float64 `json:"quick_bonus"`
	Preference   float64 `json:"preference"`
}

// ScoredRecipe pairs a recipe with its composite score for one profile.
type ScoredRecipe struct {
	Recipe      Recipe         `json:"recipe"`
	Score       float64        `json:"score"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Position    int            `json:"position"`
	Explanation *string        `json:"explanation,omitempty"`
}

type PlanEntry struct {
	MealSlot MealType     `json:"meal_slot"`
	Scored   ScoredRecipe `json:"scored"`
}

// DietProfile is the fuzzy profiler's view of a user.
type DietProfile struct {
	BMI             float64     `json:"bmi"`
	CrispScore      *float64    `json:"crisp_score,omitempty"`
	Weights         DietWeights `json:"weights"`
	Dominant        DietClass   `json:"dominant"`
	FallbackApplied bool        `json:"fallback_applied"`
}

type DayPlan struct {
	PlanID      uuid.UUID   `json:"plan_id"`
	Profile     UserProfile `json:"profile"`
	Diet        DietProfile `json:"diet"`
	Entries     []PlanEntry `json:"entries"`
	GeneratedAt time.Time   `json:"generated_at"`
	CacheHit    bool        `json:"cache_hit"`
}

type DietProfileRequest struct {
	Profile UserProfile `json:"profile" validate:"required"`
}

type RecommendationRequest struct {
	Profile  UserProfile `json:"profile" validate:"required"`
	MealType string      `json:"meal_type,omitempty" validate:"omitempty,oneof=breakfast lunch dinner Breakfast Lunch Dinner"`
	TopN     int         `json:"top_n" validate:"omitempty,min=1,max=100"`
	Explain  bool        `json:"explain"`
}

type RecommendationResponse struct {
	Diet            DietProfile    `json:"diet"`
	Recommendations []ScoredRecipe `json:"recommendations"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

type MealPlanRequest struct {
	Profile UserProfile `json:"profile" validate:"required"`
	PerMeal int         `json:"per_meal" validate:"omitempty,min=1,max=20"`
	Explain bool        `json:"explain"`
}

type BatchMealPlanRequest struct {
	Requests []MealPlanRequest `json:"requests" validate:"required,min=1,max=20,dive"`
}

type BatchMealPlanResponse struct {
	Plans []DayPlan `json:"plans"`
}

// RecipeFeedback is an explicit satisfaction rating for a planned recipe.
type RecipeFeedback struct {
	PlanID       uuid.UUID   `json:"plan_id" validate:"required"`
	RecipeID     string      `json:"recipe_id" validate:"required"`
	Satisfaction int         `json:"satisfaction" validate:"required,min=1,max=5"`
	Profile      UserProfile `json:"profile" validate:"required"`
	Comment      *string     `json:"comment,omitempty" validate:"omitempty,max=500"`
	Timestamp    time.Time   `json:"timestamp"`
}
