package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/catalog"
	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/internal/database"
	"github.com/temcen/smartdiet/internal/fuzzy"
	"github.com/temcen/smartdiet/internal/messaging"
	"github.com/temcen/smartdiet/internal/ml"
)

type Services struct {
	Auth         *AuthService
	Health       *HealthService
	RateLimit    *RateLimitService
	Metrics      *Metrics
	Models       *ml.ModelRegistry
	Catalog      catalog.Catalog
	EventBus     *messaging.EventBus
	Orchestrator *PlanOrchestrator
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, reg prometheus.Registerer) (*Services, error) {
	metrics := NewMetrics(reg)

	recipes, err := newCatalog(cfg, db, logger)
	if err != nil {
		return nil, err
	}

	registry, err := newModelRegistry(&cfg.Model, logger)
	if err != nil {
		return nil, err
	}

	deps := PlanOrchestratorDeps{
		Profiler:  NewDietProfiler(fuzzy.DefaultRuleBase(), cfg.Fuzzy.FallbackEnabled, metrics, logger),
		Ranker:    NewRecipeRanker(&cfg.Ranking, registry, metrics, logger),
		Explainer: NewExplanationService(&cfg.Ranking, logger),
		Catalog:   recipes,
		Cache:     NewRedisPlanCache(db.Redis, logger),
		Models:    registry,
		Metrics:   metrics,
	}

	var eventBus *messaging.EventBus
	if cfg.Kafka.Enabled {
		eventBus = messaging.NewEventBus(&cfg.Kafka, logger)
		deps.Publisher = eventBus
	} else {
		logger.Info("Kafka disabled, plan and feedback events will not be published")
	}
	if db.PG != nil {
		deps.Feedback = catalog.NewPostgres(db.PG, logger)
	}

	return &Services{
		Auth:         NewAuthService(&cfg.Auth, logger, db.Redis),
		Health:       NewHealthService(reg, recipes, registry, db, logger),
		RateLimit:    NewRateLimitService(&cfg.Auth.RateLimit, logger, db.Redis),
		Metrics:      metrics,
		Models:       registry,
		Catalog:      recipes,
		EventBus:     eventBus,
		Orchestrator: NewPlanOrchestrator(deps, &cfg.Planner, cfg.Ranking.DefaultTopN, logger),
	}, nil
}

// Close releases the event bus writer.
func (s *Services) Close() error {
	if s.EventBus == nil {
		return nil
	}
	return s.EventBus.Close()
}

func newCatalog(cfg *config.Config, db *database.Database, logger *logrus.Logger) (catalog.Catalog, error) {
	switch cfg.Catalog.Source {
	case "postgres":
		if db.PG == nil {
			return nil, fmt.Errorf("catalog source postgres requires database.url")
		}
		return catalog.NewPostgres(db.PG, logger), nil
	case "csv", "":
		return catalog.LoadCSV(cfg.Catalog.CSVPath, logger)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}

// newModelRegistry loads the configured model file, or registers a
// constant scorer when no file is configured.
func newModelRegistry(cfg *config.ModelConfig, logger *logrus.Logger) (*ml.ModelRegistry, error) {
	registry := ml.NewModelRegistry(logger)
	if cfg.Path != "" {
		if _, err := registry.LoadFile(cfg.Path); err != nil {
			return nil, fmt.Errorf("failed to load preference model: %w", err)
		}
		return registry, nil
	}

	logger.WithField("fallback_score", cfg.FallbackScore).Warn("No preference model configured, using a constant score")
	info := ml.ModelInfo{Name: "constant", Version: "1", InputDim: ml.FeatureCount, Classes: 1}
	if err := registry.Register(info, ml.NewConstantScorer(cfg.FallbackScore)); err != nil {
		return nil, err
	}
	return registry, nil
}
