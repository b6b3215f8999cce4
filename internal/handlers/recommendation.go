package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

type RecommendationHandler struct {
	orchestrator services.PlanOrchestratorInterface
	validator    *validator.Validate
	logger       *logrus.Logger
}

func NewRecommendationHandler(
	orchestrator services.PlanOrchestratorInterface,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		orchestrator: orchestrator,
		validator:    validator.New(),
		logger:       logger,
	}
}

// DietProfile handles POST /api/v1/diet-profile.
func (h *RecommendationHandler) DietProfile(c *gin.Context) {
	var request models.DietProfileRequest
	if !bindAndValidate(c, h.validator, h.logger, &request) {
		return
	}

	diet, err := h.orchestrator.Profile(c.Request.Context(), request.Profile)
	if err != nil {
		respondServiceError(c, h.logger, "diet_profile", err)
		return
	}

	c.JSON(http.StatusOK, diet)
}

// Recommend handles POST /api/v1/recommendations.
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var request models.RecommendationRequest
	if !bindAndValidate(c, h.validator, h.logger, &request) {
		return
	}

	response, err := h.orchestrator.Recommend(c.Request.Context(), &request)
	if err != nil {
		respondServiceError(c, h.logger, "recommend", err)
		return
	}

	for i := range response.Recommendations {
		roundScoredRecipe(&response.Recommendations[i])
	}
	c.JSON(http.StatusOK, response)
}
