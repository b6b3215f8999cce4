package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/temcen/smartdiet/pkg/models"
)

const (
	EventPlanGenerated  = "meal-plan-generated"
	EventRecipeFeedback = "recipe-feedback"
)

// PlanRow is one recommended recipe as recorded for later model training.
type PlanRow struct {
	MealSlot  models.MealType  `json:"meal_slot"`
	Position  int              `json:"position"`
	RecipeID  string           `json:"recipe_id"`
	Name      string           `json:"name"`
	DietType  string           `json:"diet_type"`
	PrepTime  float64          `json:"prep_time"`
	Nutrition models.Nutrition `json:"nutrition"`
	Score     float64          `json:"score"`
}

type PlanGeneratedEvent struct {
	EventID   uuid.UUID          `json:"event_id"`
	PlanID    uuid.UUID          `json:"plan_id"`
	Profile   models.UserProfile `json:"profile"`
	Diet      models.DietProfile `json:"diet"`
	Rows      []PlanRow          `json:"rows"`
	Timestamp time.Time          `json:"timestamp"`
}

type RecipeFeedbackEvent struct {
	EventID      uuid.UUID          `json:"event_id"`
	PlanID       uuid.UUID          `json:"plan_id"`
	RecipeID     string             `json:"recipe_id"`
	Satisfaction int                `json:"satisfaction"`
	Profile      models.UserProfile `json:"profile"`
	Comment      *string            `json:"comment,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

func NewPlanGeneratedEvent(plan *models.DayPlan) PlanGeneratedEvent {
	rows := make([]PlanRow, len(plan.Entries))
	for i, e := range plan.Entries {
		r := e.Scored.Recipe
		rows[i] = PlanRow{
			MealSlot:  e.MealSlot,
			Position:  e.Scored.Position,
			RecipeID:  r.ID,
			Name:      r.Name,
			DietType:  r.DietType,
			PrepTime:  r.PrepTime,
			Nutrition: r.Nutrition,
			Score:     e.Scored.Score,
		}
	}
	return PlanGeneratedEvent{
		EventID:   uuid.New(),
		PlanID:    plan.PlanID,
		Profile:   plan.Profile,
		Diet:      plan.Diet,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

func NewRecipeFeedbackEvent(fb *models.RecipeFeedback) RecipeFeedbackEvent {
	ts := fb.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return RecipeFeedbackEvent{
		EventID:      uuid.New(),
		PlanID:       fb.PlanID,
		RecipeID:     fb.RecipeID,
		Satisfaction: fb.Satisfaction,
		Profile:      fb.Profile,
		Comment:      fb.Comment,
		Timestamp:    ts,
	}
}
