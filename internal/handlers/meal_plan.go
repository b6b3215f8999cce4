package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

type MealPlanHandler struct {
	orchestrator services.PlanOrchestratorInterface
	validator    *validator.Validate
	logger       *logrus.Logger
}

func NewMealPlanHandler(orchestrator services.PlanOrchestratorInterface, logger *logrus.Logger) *MealPlanHandler {
	return &MealPlanHandler{
		orchestrator: orchestrator,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Create handles POST /api/v1/meal-plans.
func (h *MealPlanHandler) Create(c *gin.Context) {
	var request models.MealPlanRequest
	if !bindAndValidate(c, h.validator, h.logger, &request) {
		return
	}

	plan, err := h.orchestrator.PlanDay(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, h.logger, "meal_plan", err)
		return
	}

	roundPlan(plan)
	c.JSON(http.StatusOK, plan)
}

// CreateBatch handles POST /api/v1/meal-plans/batch.
func (h *MealPlanHandler) CreateBatch(c *gin.Context) {
	var request models.BatchMealPlanRequest
	if !bindAndValidate(c, h.validator, h.logger, &request) {
		return
	}

	response, err := h.orchestrator.PlanBatch(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, h.logger, "meal_plan_batch", err)
		return
	}

	for i := range response.Plans {
		roundPlan(&response.Plans[i])
	}
	c.JSON(http.StatusOK, response)
}
