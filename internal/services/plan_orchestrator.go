package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/temcen/smartdiet/internal/catalog"
	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/pkg/models"
)

var (
	ErrBatchTooLarge       = errors.New("batch too large")
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrFeedbackNotRecorded = errors.New("feedback not recorded")
	ErrUnknownMealType     = errors.New("unknown meal type")
)

// PlanOrchestratorDeps groups the collaborators of a PlanOrchestrator.
// Cache, Models, Publisher and Feedback are optional. Models keys cached
// plans by the active preference model.
type PlanOrchestratorDeps struct {
	Profiler  *DietProfiler
	Ranker    Ranker
	Explainer *ExplanationService
	Catalog   catalog.Catalog
	Cache     PlanCache
	Models    ActiveModelSource
	Publisher EventPublisher
	Feedback  FeedbackStore
	Metrics   *Metrics
}

// PlanOrchestrator runs a request end to end: profile, load recipes, rank
// or plan, then cache and publish.
type PlanOrchestrator struct {
	profiler    *DietProfiler
	ranker      Ranker
	planner     *MealPlanner
	explainer   *ExplanationService
	catalog     catalog.Catalog
	cache       PlanCache
	models      ActiveModelSource
	publisher   EventPublisher
	feedback    FeedbackStore
	config      *config.PlannerConfig
	defaultTopN int
	metrics     *Metrics
	logger      *logrus.Logger
}

func NewPlanOrchestrator(deps PlanOrchestratorDeps, cfg *config.PlannerConfig, defaultTopN int, logger *logrus.Logger) *PlanOrchestrator {
	return &PlanOrchestrator{
		profiler:    deps.Profiler,
		ranker:      deps.Ranker,
		planner:     NewMealPlanner(deps.Ranker, logger),
		explainer:   deps.Explainer,
		catalog:     deps.Catalog,
		cache:       deps.Cache,
		models:      deps.Models,
		publisher:   deps.Publisher,
		feedback:    deps.Feedback,
		config:      cfg,
		defaultTopN: defaultTopN,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

func (o *PlanOrchestrator) Profile(ctx context.Context, profile models.UserProfile) (diet models.DietProfile, err error) {
	defer func() { o.metrics.ObserveRequest("diet_profile", err) }()
	return o.profiler.Profile(profile)
}

// Recommend ranks the catalog, optionally restricted to one meal type.
func (o *PlanOrchestrator) Recommend(ctx context.Context, req *models.RecommendationRequest) (resp *models.RecommendationResponse, err error) {
	defer func() { o.metrics.ObserveRequest("recommend", err) }()

	diet, err := o.profiler.Profile(req.Profile)
	if err != nil {
		return nil, err
	}

	recipes, err := o.recipes(ctx)
	if err != nil {
		return nil, err
	}
	if req.MealType != "" {
		slot, ok := models.ParseMealType(req.MealType)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMealType, req.MealType)
		}
		recipes = PartitionByMeal(recipes)[slot]
	}

	topN := req.TopN
	if topN == 0 {
		topN = o.defaultTopN
	}

	ranked, err := o.ranker.Recommend(ctx, req.Profile, diet.Weights, recipes, topN)
	if err != nil {
		return nil, err
	}
	if req.Explain && o.explainer != nil {
		ranked = o.explainer.GenerateExplanations(diet, ranked)
	}

	o.logger.WithFields(logrus.Fields{
		"dominant":  diet.Dominant,
		"meal_type": req.MealType,
		"returned":  len(ranked),
	}).Debug("Recommendations generated")

	return &models.RecommendationResponse{
		Diet:            diet,
		Recommendations: ranked,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// PlanDay builds a breakfast, lunch and dinner plan. Fresh plans are cached
// and published; cached plans are returned with CacheHit set.
func (o *PlanOrchestrator) PlanDay(ctx context.Context, req *models.MealPlanRequest) (plan *models.DayPlan, err error) {
	defer func() { o.metrics.ObserveRequest("meal_plan", err) }()
	return o.planDay(ctx, req)
}

func (o *PlanOrchestrator) planDay(ctx context.Context, req *models.MealPlanRequest) (*models.DayPlan, error) {
	perMeal := req.PerMeal
	if perMeal == 0 {
		perMeal = o.config.DefaultPerMeal
	}

	key := PlanCacheKey(req.Profile, perMeal, req.Explain, ModelCacheIdentity(o.models))
	if o.cache != nil {
		cached, ok := o.cache.Get(ctx, key)
		o.metrics.PlanCache(ok)
		if ok {
			cached.CacheHit = true
			return cached, nil
		}
	}

	diet, err := o.profiler.Profile(req.Profile)
	if err != nil {
		return nil, err
	}

	recipes, err := o.recipes(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := o.planner.PlanDay(ctx, req.Profile, diet.Weights, recipes, perMeal)
	if err != nil {
		return nil, err
	}
	if req.Explain && o.explainer != nil {
		for i := range entries {
			text := o.explainer.Explain(diet, entries[i].Scored)
			entries[i].Scored.Explanation = &text
		}
	}

	plan := &models.DayPlan{
		PlanID:      uuid.New(),
		Profile:     req.Profile,
		Diet:        diet,
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	}

	if o.cache != nil {
		o.cache.Set(ctx, key, plan, o.config.CacheTTL)
	}
	o.publishPlan(ctx, plan)

	o.logger.WithFields(logrus.Fields{
		"plan_id":  plan.PlanID,
		"dominant": diet.Dominant,
		"fallback": diet.FallbackApplied,
		"entries":  len(entries),
	}).Info("Meal plan generated")

	return plan, nil
}

// PlanBatch plans every request on a bounded pool. The first failure
// cancels the remaining work and fails the batch.
func (o *PlanOrchestrator) PlanBatch(ctx context.Context, req *models.BatchMealPlanRequest) (resp *models.BatchMealPlanResponse, err error) {
	defer func() { o.metrics.ObserveRequest("meal_plan_batch", err) }()

	if o.config.MaxBatch > 0 && len(req.Requests) > o.config.MaxBatch {
		return nil, fmt.Errorf("%w: %d requests, limit %d", ErrBatchTooLarge, len(req.Requests), o.config.MaxBatch)
	}

	concurrency := o.config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	plans := make([]models.DayPlan, len(req.Requests))
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(concurrency)

	for idx := range req.Requests {
		idx := idx
		p.Go(func(ctx context.Context) error {
			plan, err := o.planDay(ctx, &req.Requests[idx])
			if err != nil {
				return fmt.Errorf("plan %d: %w", idx, err)
			}
			plans[idx] = *plan
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return &models.BatchMealPlanResponse{Plans: plans}, nil
}

// SubmitFeedback records a satisfaction rating with the features the
// preference model would see for that recipe. The rating counts as
// recorded once any configured sink accepts it.
func (o *PlanOrchestrator) SubmitFeedback(ctx context.Context, fb *models.RecipeFeedback) (err error) {
	defer func() { o.metrics.ObserveRequest("feedback", err) }()

	if fb.Timestamp.IsZero() {
		fb.Timestamp = time.Now().UTC()
	}

	recipe, err := o.findRecipe(ctx, fb.RecipeID)
	if err != nil {
		return err
	}

	var (
		sinks    int
		failures []error
	)
	if o.feedback != nil {
		sinks++
		features := FeatureVector(fb.Profile, recipe)
		if err := o.feedback.RecordFeedback(ctx, uuid.New(), fb, features); err != nil {
			o.logger.WithError(err).WithField("plan_id", fb.PlanID).Error("Failed to store feedback")
			failures = append(failures, err)
		}
	}
	if o.publisher != nil {
		sinks++
		err := o.publisher.PublishFeedback(ctx, fb)
		o.metrics.EventPublished("recipe_feedback", err)
		if err != nil {
			o.logger.WithError(err).WithField("plan_id", fb.PlanID).Error("Failed to publish feedback")
			failures = append(failures, err)
		}
	}

	if sinks > 0 && len(failures) == sinks {
		return fmt.Errorf("%w: %w", ErrFeedbackNotRecorded, errors.Join(failures...))
	}

	o.logger.WithFields(logrus.Fields{
		"plan_id":      fb.PlanID,
		"recipe_id":    fb.RecipeID,
		"satisfaction": fb.Satisfaction,
	}).Info("Feedback received")
	return nil
}

func (o *PlanOrchestrator) publishPlan(ctx context.Context, plan *models.DayPlan) {
	if o.publisher == nil {
		return
	}
	err := o.publisher.PublishPlanGenerated(ctx, plan)
	o.metrics.EventPublished("meal_plan_generated", err)
	if err != nil {
		// The plan is still served; the event bus has its own DLQ.
		o.logger.WithError(err).WithField("plan_id", plan.PlanID).Warn("Failed to publish plan event")
	}
}

func (o *PlanOrchestrator) recipes(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := o.catalog.Recipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	return recipes, nil
}

func (o *PlanOrchestrator) findRecipe(ctx context.Context, id string) (models.Recipe, error) {
	recipes, err := o.recipes(ctx)
	if err != nil {
		return models.Recipe{}, err
	}
	for _, recipe := range recipes {
		if recipe.ID == id {
			return recipe, nil
		}
	}
	return models.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
}
