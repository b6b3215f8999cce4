package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/fuzzy"
	"github.com/temcen/smartdiet/internal/ml"
	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

type apiError struct {
	status  int
	code    string
	message string
}

// errorTable is checked in order; the first sentinel that matches wins.
var errorTable = []struct {
	target error
	apiError
}{
	{fuzzy.ErrOutOfRangeInput, apiError{http.StatusUnprocessableEntity, "INPUT_OUT_OF_RANGE", "Profile is outside the supported range"}},
	{fuzzy.ErrInputsIncomplete, apiError{http.StatusUnprocessableEntity, "INPUT_INCOMPLETE", "Profile is incomplete"}},
	{fuzzy.ErrNoRuleFired, apiError{http.StatusUnprocessableEntity, "NO_DIET_RULE_FIRED", "No diet rule applies to this profile"}},
	{services.ErrPreferenceScoreMissing, apiError{http.StatusBadGateway, "PREFERENCE_SCORER_FAILED", "Preference model could not score the recipes"}},
	{ml.ErrNoActiveModel, apiError{http.StatusBadGateway, "PREFERENCE_SCORER_FAILED", "No preference model is active"}},
	{services.ErrUnknownMealType, apiError{http.StatusBadRequest, "INVALID_REQUEST", "Unknown meal type"}},
	{services.ErrBatchTooLarge, apiError{http.StatusBadRequest, "BATCH_SIZE_EXCEEDED", "Too many plans in one batch"}},
	{services.ErrRecipeNotFound, apiError{http.StatusNotFound, "RECIPE_NOT_FOUND", "Recipe not found"}},
	{services.ErrFeedbackNotRecorded, apiError{http.StatusServiceUnavailable, "FEEDBACK_UNAVAILABLE", "Feedback could not be recorded"}},
	{ml.ErrModelNotFound, apiError{http.StatusNotFound, "MODEL_NOT_FOUND", "Model not found"}},
	{ml.ErrInvalidModel, apiError{http.StatusBadRequest, "INVALID_MODEL", "Model definition is invalid"}},
	{services.ErrInvalidAPIKey, apiError{http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key"}},
	{context.DeadlineExceeded, apiError{http.StatusGatewayTimeout, "TIMEOUT", "Request timed out"}},
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps a service error onto the JSON error envelope.
func respondServiceError(c *gin.Context, logger *logrus.Logger, operation string, err error) {
	for _, entry := range errorTable {
		if errors.Is(err, entry.target) {
			logger.WithError(err).WithField("operation", operation).Warn("Request failed")
			respondError(c, entry.status, entry.code, entry.message)
			return
		}
	}

	logger.WithError(err).WithField("operation", operation).Error("Request failed")
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

// bindAndValidate decodes the JSON body into req and runs its struct tags.
// It writes a 400 and returns false when either step fails.
func bindAndValidate(c *gin.Context, validate *validator.Validate, logger *logrus.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		logger.WithError(err).Debug("Invalid JSON body")
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON format")
		return false
	}
	if err := validate.Struct(req); err != nil {
		logger.WithError(err).Debug("Request validation failed")
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Request validation failed"
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return "Request validation failed: " + strings.Join(fields, "; ")
}

// round3 rounds for display. Ranking always uses full precision.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func roundScoredRecipe(s *models.ScoredRecipe) {
	s.Score = round3(s.Score)
	s.Breakdown.DietFit = round3(s.Breakdown.DietFit)
	s.Breakdown.CalorieBonus = round3(s.Breakdown.CalorieBonus)
	s.Breakdown.QuickBonus = round3(s.Breakdown.QuickBonus)
	s.Breakdown.Preference = round3(s.Breakdown.Preference)
}

func roundPlan(plan *models.DayPlan) {
	for i := range plan.Entries {
		roundScoredRecipe(&plan.Entries[i].Scored)
	}
}
