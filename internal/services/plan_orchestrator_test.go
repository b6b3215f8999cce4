package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/smartdiet/internal/catalog"
	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/internal/fuzzy"
	"github.com/temcen/smartdiet/internal/ml"
	"github.com/temcen/smartdiet/pkg/models"
)

type MockPlanCache struct {
	mock.Mock
}

func (m *MockPlanCache) Get(ctx context.Context, key string) (*models.DayPlan, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.DayPlan), args.Bool(1)
}

func (m *MockPlanCache) Set(ctx context.Context, key string, plan *models.DayPlan, ttl time.Duration) {
	m.Called(ctx, key, plan, ttl)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPlanGenerated(ctx context.Context, plan *models.DayPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishFeedback(ctx context.Context, fb *models.RecipeFeedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

type MockFeedbackStore struct {
	mock.Mock
}

func (m *MockFeedbackStore) RecordFeedback(ctx context.Context, id uuid.UUID, fb *models.RecipeFeedback, features []float64) error {
	args := m.Called(ctx, id, fb, features)
	return args.Error(0)
}

func plannerConfig() *config.PlannerConfig {
	return &config.PlannerConfig{
		DefaultPerMeal:   3,
		MaxBatch:         20,
		BatchConcurrency: 4,
		CacheTTL:         15 * time.Minute,
	}
}

// memoryPlanCache is an in-process PlanCache that round-trips plans
// through a copy, like a real store would.
type memoryPlanCache struct {
	mu    sync.Mutex
	plans map[string]models.DayPlan
}

func newMemoryPlanCache() *memoryPlanCache {
	return &memoryPlanCache{plans: make(map[string]models.DayPlan)}
}

func (c *memoryPlanCache) Get(ctx context.Context, key string) (*models.DayPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, ok := c.plans[key]
	if !ok {
		return nil, false
	}
	return &plan, true
}

func (c *memoryPlanCache) Set(ctx context.Context, key string, plan *models.DayPlan, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[key] = *plan
}

type orchestratorOptions struct {
	scorer    ml.PreferenceScorer
	cache     PlanCache
	models    ActiveModelSource
	publisher EventPublisher
	feedback  FeedbackStore
	metrics   *Metrics
}

func newTestOrchestrator(opts orchestratorOptions) *PlanOrchestrator {
	logger := quietLogger()
	if opts.scorer == nil {
		opts.scorer = ml.NewConstantScorer(0.5)
	}
	return NewPlanOrchestrator(PlanOrchestratorDeps{
		Profiler:  NewDietProfiler(fuzzy.DefaultRuleBase(), true, opts.metrics, logger),
		Ranker:    NewRecipeRanker(rankingConfig(), opts.scorer, opts.metrics, logger),
		Explainer: NewExplanationService(rankingConfig(), logger),
		Catalog:   catalog.NewStatic(sampleRecipes()),
		Cache:     opts.cache,
		Models:    opts.models,
		Publisher: opts.publisher,
		Feedback:  opts.feedback,
		Metrics:   opts.metrics,
	}, plannerConfig(), 3, logger)
}

func TestPlanOrchestrator_Recommend(t *testing.T) {
	o := newTestOrchestrator(orchestratorOptions{})

	t.Run("default top n over the whole catalog", func(t *testing.T) {
		resp, err := o.Recommend(context.Background(), &models.RecommendationRequest{Profile: normalProfile()})
		require.NoError(t, err)
		assert.Len(t, resp.Recommendations, 3)
		assert.False(t, resp.GeneratedAt.IsZero())
		for _, sr := range resp.Recommendations {
			assert.Nil(t, sr.Explanation)
		}
	})

	t.Run("meal type filter", func(t *testing.T) {
		resp, err := o.Recommend(context.Background(), &models.RecommendationRequest{
			Profile:  normalProfile(),
			MealType: "Lunch",
			TopN:     5,
		})
		require.NoError(t, err)
		require.Len(t, resp.Recommendations, 2)
		for _, sr := range resp.Recommendations {
			slot, ok := models.ParseMealType(sr.Recipe.MealType)
			require.True(t, ok)
			assert.Equal(t, models.MealLunch, slot)
		}
	})

	t.Run("explain", func(t *testing.T) {
		resp, err := o.Recommend(context.Background(), &models.RecommendationRequest{
			Profile: normalProfile(),
			TopN:    1,
			Explain: true,
		})
		require.NoError(t, err)
		require.Len(t, resp.Recommendations, 1)
		require.NotNil(t, resp.Recommendations[0].Explanation)
		assert.NotEmpty(t, *resp.Recommendations[0].Explanation)
	})

	t.Run("unknown meal type", func(t *testing.T) {
		_, err := o.Recommend(context.Background(), &models.RecommendationRequest{
			Profile:  normalProfile(),
			MealType: "brunch",
		})
		assert.ErrorIs(t, err, ErrUnknownMealType)
	})
}

func TestPlanOrchestrator_Recommend_ScorerFailure(t *testing.T) {
	scorer := new(MockPreferenceScorer)
	scorer.On("Score", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	o := newTestOrchestrator(orchestratorOptions{scorer: scorer})
	_, err := o.Recommend(context.Background(), &models.RecommendationRequest{Profile: normalProfile()})

	assert.ErrorIs(t, err, ErrPreferenceScoreMissing)
}

func TestPlanOrchestrator_PlanDay(t *testing.T) {
	cache := new(MockPlanCache)
	publisher := new(MockEventPublisher)
	metrics := NewMetrics(prometheus.NewRegistry())

	req := &models.MealPlanRequest{Profile: normalProfile(), PerMeal: 2}
	key := PlanCacheKey(req.Profile, 2, false, "")

	cache.On("Get", mock.Anything, key).Return(nil, false).Once()
	cache.On("Set", mock.Anything, key, mock.AnythingOfType("*models.DayPlan"), 15*time.Minute).Once()
	publisher.On("PublishPlanGenerated", mock.Anything, mock.AnythingOfType("*models.DayPlan")).Return(nil).Once()

	o := newTestOrchestrator(orchestratorOptions{cache: cache, publisher: publisher, metrics: metrics})
	plan, err := o.PlanDay(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, plan.PlanID)
	assert.False(t, plan.CacheHit)
	assert.Equal(t, req.Profile, plan.Profile)
	require.Len(t, plan.Entries, 6)
	assert.Equal(t, models.MealBreakfast, plan.Entries[0].MealSlot)
	assert.Equal(t, models.MealDinner, plan.Entries[5].MealSlot)
	assert.Equal(t, plan.Diet.Weights.Dominant(), plan.Diet.Dominant)

	cache.AssertExpectations(t)
	publisher.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.planCache.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues("meal_plan_generated", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("meal_plan", "success")))
}

func TestPlanOrchestrator_PlanDay_DefaultPerMeal(t *testing.T) {
	o := newTestOrchestrator(orchestratorOptions{})

	plan, err := o.PlanDay(context.Background(), &models.MealPlanRequest{Profile: normalProfile()})
	require.NoError(t, err)

	// two candidates per slot in the sample catalog
	assert.Len(t, plan.Entries, 6)
}

func TestPlanOrchestrator_PlanDay_CacheHit(t *testing.T) {
	cached := &models.DayPlan{PlanID: uuid.New(), Profile: normalProfile()}

	cache := new(MockPlanCache)
	cache.On("Get", mock.Anything, mock.Anything).Return(cached, true).Once()
	publisher := new(MockEventPublisher)

	o := newTestOrchestrator(orchestratorOptions{cache: cache, publisher: publisher})
	plan, err := o.PlanDay(context.Background(), &models.MealPlanRequest{Profile: normalProfile()})
	require.NoError(t, err)

	assert.Equal(t, cached.PlanID, plan.PlanID)
	assert.True(t, plan.CacheHit)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishPlanGenerated", mock.Anything, mock.Anything)
}

func TestPlanOrchestrator_PlanDay_ModelSwitchInvalidatesCache(t *testing.T) {
	registry := ml.NewModelRegistry(quietLogger())
	require.NoError(t, registry.Register(ml.ModelInfo{Name: "a", Version: "1", Hash: "aaa"}, ml.NewConstantScorer(0.1)))
	require.NoError(t, registry.Register(ml.ModelInfo{Name: "b", Version: "1", Hash: "bbb"}, ml.NewConstantScorer(0.9)))

	o := newTestOrchestrator(orchestratorOptions{scorer: registry, models: registry, cache: newMemoryPlanCache()})
	req := &models.MealPlanRequest{Profile: normalProfile(), PerMeal: 1}
	ctx := context.Background()

	first, err := o.PlanDay(ctx, req)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	repeat, err := o.PlanDay(ctx, req)
	require.NoError(t, err)
	assert.True(t, repeat.CacheHit)
	assert.Equal(t, first.PlanID, repeat.PlanID)

	require.NoError(t, registry.Activate("b"))

	switched, err := o.PlanDay(ctx, req)
	require.NoError(t, err)
	assert.False(t, switched.CacheHit)
	assert.NotEqual(t, first.PlanID, switched.PlanID)
	require.NotEmpty(t, switched.Entries)
	assert.Greater(t, switched.Entries[0].Scored.Breakdown.Preference, first.Entries[0].Scored.Breakdown.Preference)
}

func TestPlanOrchestrator_PlanDay_PublishFailure(t *testing.T) {
	publisher := new(MockEventPublisher)
	publisher.On("PublishPlanGenerated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	o := newTestOrchestrator(orchestratorOptions{publisher: publisher})
	plan, err := o.PlanDay(context.Background(), &models.MealPlanRequest{Profile: normalProfile(), Explain: true})
	require.NoError(t, err)
	require.NotEmpty(t, plan.Entries)
	assert.NotNil(t, plan.Entries[0].Scored.Explanation)
}

func TestPlanOrchestrator_PlanDay_Fallback(t *testing.T) {
	o := newTestOrchestrator(orchestratorOptions{})

	plan, err := o.PlanDay(context.Background(), &models.MealPlanRequest{Profile: fallbackProfile()})
	require.NoError(t, err)

	assert.True(t, plan.Diet.FallbackApplied)
	assert.Equal(t, models.EqualDietWeights(), plan.Diet.Weights)
}

func TestPlanOrchestrator_PlanBatch(t *testing.T) {
	o := newTestOrchestrator(orchestratorOptions{})

	requests := make([]models.MealPlanRequest, 5)
	for i := range requests {
		profile := normalProfile()
		profile.Age = float64(30 + i)
		requests[i] = models.MealPlanRequest{Profile: profile, PerMeal: 1}
	}

	resp, err := o.PlanBatch(context.Background(), &models.BatchMealPlanRequest{Requests: requests})
	require.NoError(t, err)
	require.Len(t, resp.Plans, 5)

	seen := map[uuid.UUID]bool{}
	for i, plan := range resp.Plans {
		assert.Equal(t, float64(30+i), plan.Profile.Age)
		assert.Len(t, plan.Entries, 3)
		seen[plan.PlanID] = true
	}
	assert.Len(t, seen, 5)
}

func TestPlanOrchestrator_PlanBatch_TooLarge(t *testing.T) {
	o := newTestOrchestrator(orchestratorOptions{})

	requests := make([]models.MealPlanRequest, 21)
	for i := range requests {
		requests[i] = models.MealPlanRequest{Profile: normalProfile()}
	}

	_, err := o.PlanBatch(context.Background(), &models.BatchMealPlanRequest{Requests: requests})
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestPlanOrchestrator_PlanBatch_Failure(t *testing.T) {
	scorer := new(MockPreferenceScorer)
	scorer.On("Score", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	o := newTestOrchestrator(orchestratorOptions{scorer: scorer})
	resp, err := o.PlanBatch(context.Background(), &models.BatchMealPlanRequest{Requests: []models.MealPlanRequest{
		{Profile: normalProfile()},
		{Profile: fallbackProfile()},
	}})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrPreferenceScoreMissing)
}

func TestPlanOrchestrator_SubmitFeedback(t *testing.T) {
	planID := uuid.New()
	fb := &models.RecipeFeedback{
		PlanID:       planID,
		RecipeID:     "l2",
		Satisfaction: 4,
		Profile:      normalProfile(),
	}

	t.Run("stored and published", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("RecordFeedback", mock.Anything, mock.AnythingOfType("uuid.UUID"), fb,
			mock.MatchedBy(func(features []float64) bool {
				return len(features) == ml.FeatureCount && features[4] == 450
			})).Return(nil).Once()
		publisher := new(MockEventPublisher)
		publisher.On("PublishFeedback", mock.Anything, fb).Return(nil).Once()

		o := newTestOrchestrator(orchestratorOptions{feedback: store, publisher: publisher})
		require.NoError(t, o.SubmitFeedback(context.Background(), fb))

		assert.False(t, fb.Timestamp.IsZero())
		store.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("one sink failing is tolerated", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("RecordFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
		publisher := new(MockEventPublisher)
		publisher.On("PublishFeedback", mock.Anything, mock.Anything).Return(nil)

		o := newTestOrchestrator(orchestratorOptions{feedback: store, publisher: publisher})
		assert.NoError(t, o.SubmitFeedback(context.Background(), fb))
	})

	t.Run("every sink failing", func(t *testing.T) {
		store := new(MockFeedbackStore)
		store.On("RecordFeedback", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
		publisher := new(MockEventPublisher)
		publisher.On("PublishFeedback", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		o := newTestOrchestrator(orchestratorOptions{feedback: store, publisher: publisher})
		err := o.SubmitFeedback(context.Background(), fb)
		assert.ErrorIs(t, err, ErrFeedbackNotRecorded)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		o := newTestOrchestrator(orchestratorOptions{})
		err := o.SubmitFeedback(context.Background(), &models.RecipeFeedback{
			PlanID:       planID,
			RecipeID:     "missing",
			Satisfaction: 3,
			Profile:      normalProfile(),
		})
		assert.ErrorIs(t, err, ErrRecipeNotFound)
	})

	t.Run("no sinks configured", func(t *testing.T) {
		o := newTestOrchestrator(orchestratorOptions{})
		assert.NoError(t, o.SubmitFeedback(context.Background(), fb))
	})
}
