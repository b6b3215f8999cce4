package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/smartdiet/pkg/models"
)

type MockPlanOrchestrator struct {
	mock.Mock
}

func (m *MockPlanOrchestrator) Profile(ctx context.Context, profile models.UserProfile) (models.DietProfile, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(models.DietProfile), args.Error(1)
}

func (m *MockPlanOrchestrator) Recommend(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationResponse), args.Error(1)
}

func (m *MockPlanOrchestrator) PlanDay(ctx context.Context, req *models.MealPlanRequest) (*models.DayPlan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DayPlan), args.Error(1)
}

func (m *MockPlanOrchestrator) PlanBatch(ctx context.Context, req *models.BatchMealPlanRequest) (*models.BatchMealPlanResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchMealPlanResponse), args.Error(1)
}

func (m *MockPlanOrchestrator) SubmitFeedback(ctx context.Context, fb *models.RecipeFeedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func profileJSON() map[string]interface{} {
	return map[string]interface{}{
		"age":            40,
		"height":         170,
		"weight":         63.58,
		"activity_level": "Medium",
		"satiety":        3,
	}
}

func performRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
