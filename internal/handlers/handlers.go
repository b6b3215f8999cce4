package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	MealPlan       *MealPlanHandler
	Feedback       *FeedbackHandler
	Auth           *AuthHandler
	Models         *ModelHandler
	Metrics        *MetricsHandler
}

func New(logger *logrus.Logger, services *services.Services, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.Orchestrator, logger),
		MealPlan:       NewMealPlanHandler(services.Orchestrator, logger),
		Feedback:       NewFeedbackHandler(services.Orchestrator, logger),
		Auth:           NewAuthHandler(services.Auth, logger),
		Models:         NewModelHandler(services.Models, logger),
		Metrics:        NewMetricsHandler(logger, gatherer),
	}
}
