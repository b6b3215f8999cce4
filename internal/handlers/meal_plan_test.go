package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/smartdiet/internal/services"
	"github.com/temcen/smartdiet/pkg/models"
)

func mealPlanRouter(orchestrator *MockPlanOrchestrator) *gin.Engine {
	h := NewMealPlanHandler(orchestrator, quietLogger())
	router := gin.New()
	router.POST("/api/v1/meal-plans", h.Create)
	router.POST("/api/v1/meal-plans/batch", h.CreateBatch)
	return router
}

func dayPlan(score float64) *models.DayPlan {
	return &models.DayPlan{
		PlanID: uuid.New(),
		Diet:   models.DietProfile{Dominant: models.DietLowCarb},
		Entries: []models.PlanEntry{
			{MealSlot: models.MealBreakfast, Scored: models.ScoredRecipe{Recipe: models.Recipe{ID: "b1"}, Score: score, Position: 1}},
			{MealSlot: models.MealDinner, Scored: models.ScoredRecipe{Recipe: models.Recipe{ID: "d1"}, Score: score / 2, Position: 1}},
		},
		GeneratedAt: time.Now().UTC(),
	}
}

func TestMealPlanHandler_Create(t *testing.T) {
	t.Run("returns the plan", func(t *testing.T) {
		orchestrator := new(MockPlanOrchestrator)
		plan := dayPlan(3.14159)
		orchestrator.On("PlanDay", mock.Anything, mock.MatchedBy(func(req *models.MealPlanRequest) bool {
			return req.PerMeal == 2
		})).Return(plan, nil)

		w := performRequest(t, mealPlanRouter(orchestrator), "POST", "/api/v1/meal-plans",
			map[string]interface{}{"profile": profileJSON(), "per_meal": 2})

		requireStatus(t, w, http.StatusOK)
		var body models.DayPlan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, plan.PlanID, body.PlanID)
		require.Len(t, body.Entries, 2)
		assert.Equal(t, models.MealBreakfast, body.Entries[0].MealSlot)
		assert.Equal(t, 3.142, body.Entries[0].Scored.Score)
		assert.Equal(t, 1.571, body.Entries[1].Scored.Score)
	})

	t.Run("per_meal above limit", func(t *testing.T) {
		orchestrator := new(MockPlanOrchestrator)

		w := performRequest(t, mealPlanRouter(orchestrator), "POST", "/api/v1/meal-plans",
			map[string]interface{}{"profile": profileJSON(), "per_meal": 50})

		requireStatus(t, w, http.StatusBadRequest)
		assert.Contains(t, decodeError(t, w).Error.Message, "PerMeal")
	})
}

func TestMealPlanHandler_CreateBatch(t *testing.T) {
	batch := map[string]interface{}{
		"requests": []map[string]interface{}{
			{"profile": profileJSON()},
			{"profile": profileJSON(), "per_meal": 1},
		},
	}

	t.Run("returns plans in request order", func(t *testing.T) {
		orchestrator := new(MockPlanOrchestrator)
		first, second := dayPlan(1), dayPlan(2)
		orchestrator.On("PlanBatch", mock.Anything, mock.MatchedBy(func(req *models.BatchMealPlanRequest) bool {
			return len(req.Requests) == 2
		})).Return(&models.BatchMealPlanResponse{Plans: []models.DayPlan{*first, *second}}, nil)

		w := performRequest(t, mealPlanRouter(orchestrator), "POST", "/api/v1/meal-plans/batch", batch)

		requireStatus(t, w, http.StatusOK)
		var body models.BatchMealPlanResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Plans, 2)
		assert.Equal(t, first.PlanID, body.Plans[0].PlanID)
		assert.Equal(t, second.PlanID, body.Plans[1].PlanID)
	})

	t.Run("empty batch", func(t *testing.T) {
		orchestrator := new(MockPlanOrchestrator)

		w := performRequest(t, mealPlanRouter(orchestrator), "POST", "/api/v1/meal-plans/batch",
			map[string]interface{}{"requests": []interface{}{}})

		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Error.Code)
	})

	t.Run("batch limit from config", func(t *testing.T) {
		orchestrator := new(MockPlanOrchestrator)
		orchestrator.On("PlanBatch", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: 2 requests, limit 1", services.ErrBatchTooLarge))

		w := performRequest(t, mealPlanRouter(orchestrator), "POST", "/api/v1/meal-plans/batch", batch)

		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "BATCH_SIZE_EXCEEDED", decodeError(t, w).Error.Code)
	})

	t.Run("invalid profile inside batch", func(t *testing.T) {
		orchestrator := new(MockPlanOrchestrator)
		profile := profileJSON()
		profile["weight"] = -1

		w := performRequest(t, mealPlanRouter(orchestrator), "POST", "/api/v1/meal-plans/batch",
			map[string]interface{}{"requests": []map[string]interface{}{{"profile": profile}}})

		requireStatus(t, w, http.StatusBadRequest)
		assert.Contains(t, decodeError(t, w).Error.Message, "Requests[0].Profile.WeightKG")
	})
}
