package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/config"
	"github.com/temcen/smartdiet/internal/database"
	"github.com/temcen/smartdiet/internal/docs"
	"github.com/temcen/smartdiet/internal/handlers"
	"github.com/temcen/smartdiet/internal/middleware"
	"github.com/temcen/smartdiet/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	registry *prometheus.Registry
	services *services.Services
	handlers *handlers.Handlers
	docs     *docs.Handler
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config:   cfg,
		logger:   setupLogger(cfg),
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.Database.URL != "" && cfg.Database.MigrateOnStart {
		if err := database.Migrate(cfg.Database.URL, app.logger); err != nil {
			return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
		}
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	svc, err := services.New(cfg, app.logger, db, app.registry)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	app.handlers = handlers.New(app.logger, svc, app.registry)

	app.docs, err = docs.NewHandler()
	if err != nil {
		db.Close()
		return nil, err
	}

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Logger() *logrus.Logger {
	return a.logger
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (a *App) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr:              ":" + a.config.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.config.Server.Port).Info("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("Server forced to shutdown")
	}
	return a.Shutdown(shutdownCtx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	var errs []error
	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing event bus")
		errs = append(errs, err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(&a.config.Security.CORS))

	router.GET("/health", a.handlers.Health.Check)
	a.docs.RegisterRoutes(router)

	if a.config.Monitoring.Enabled {
		path := a.config.Monitoring.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, a.handlers.Metrics.Serve)
	}

	api := router.Group("/api/v1")

	// Token exchange sits outside the authenticated group.
	api.POST("/auth/token", a.handlers.Auth.Token)

	protected := api.Group("")
	if a.config.Auth.Enabled {
		protected.Use(middleware.Auth(a.services.Auth, a.logger))
		protected.Use(middleware.RateLimit(a.services.RateLimit, a.logger))
	} else {
		a.logger.Warn("Authentication disabled, API routes are open")
	}
	{
		protected.POST("/diet-profile", a.handlers.Recommendation.DietProfile)
		protected.POST("/recommendations", a.handlers.Recommendation.Recommend)

		mealPlans := protected.Group("/meal-plans")
		{
			mealPlans.POST("", a.handlers.MealPlan.Create)
			mealPlans.POST("/batch", a.handlers.MealPlan.CreateBatch)
		}

		protected.POST("/feedback", a.handlers.Feedback.Submit)

		modelRoutes := protected.Group("/models")
		{
			modelRoutes.GET("", a.handlers.Models.List)
			modelRoutes.POST("", a.handlers.Models.Load)
			modelRoutes.GET("/:name", a.handlers.Models.Get)
			modelRoutes.POST("/:name/activate", a.handlers.Models.Activate)
		}
	}

	a.router = router
}
