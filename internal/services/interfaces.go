package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/temcen/smartdiet/internal/ml"
	"github.com/temcen/smartdiet/pkg/models"
)

// PlanCache keeps generated plans for repeat requests. Implementations
// swallow their own failures: a broken cache is a miss.
type PlanCache interface {
	Get(ctx context.Context, key string) (*models.DayPlan, bool)
	Set(ctx context.Context, key string, plan *models.DayPlan, ttl time.Duration)
}

// ActiveModelSource reports the preference model currently used for
// scoring. *ml.ModelRegistry implements it.
type ActiveModelSource interface {
	ActiveModel() (*ml.ModelInfo, error)
}

// EventPublisher sends plan and feedback events downstream.
type EventPublisher interface {
	PublishPlanGenerated(ctx context.Context, plan *models.DayPlan) error
	PublishFeedback(ctx context.Context, fb *models.RecipeFeedback) error
}

// FeedbackStore persists satisfaction ratings together with the feature
// vector the preference model saw.
type FeedbackStore interface {
	RecordFeedback(ctx context.Context, id uuid.UUID, fb *models.RecipeFeedback, features []float64) error
}

// PlanOrchestratorInterface is what the HTTP handlers depend on.
type PlanOrchestratorInterface interface {
	Profile(ctx context.Context, profile models.UserProfile) (models.DietProfile, error)
	Recommend(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error)
	PlanDay(ctx context.Context, req *models.MealPlanRequest) (*models.DayPlan, error)
	PlanBatch(ctx context.Context, req *models.BatchMealPlanRequest) (*models.BatchMealPlanResponse, error)
	SubmitFeedback(ctx context.Context, fb *models.RecipeFeedback) error
}
