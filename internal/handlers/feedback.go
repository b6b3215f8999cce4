package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

type FeedbackHandler struct {
	orchestrator services.PlanOrchestratorInterface
	validator    *validator.Validate
	logger       *logrus.Logger
}

func NewFeedbackHandler(orchestrator services.PlanOrchestratorInterface, logger *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		orchestrator: orchestrator,
		validator:    validator.New(),
		logger:       logger,
	}
}

// Submit handles POST /api/v1/feedback.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var feedback models.RecipeFeedback
	if !bindAndValidate(c, h.validator, h.logger, &feedback) {
		return
	}

	if err := h.orchestrator.SubmitFeedback(c.Request.Context(), &feedback); err != nil {
		respondServiceError(c, h.logger, "feedback", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":    "accepted",
		"plan_id":   feedback.PlanID,
		"recipe_id": feedback.RecipeID,
		"timestamp": feedback.Timestamp,
	})
}
