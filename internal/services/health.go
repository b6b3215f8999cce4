package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/temcen/smartdiet/internal/catalog"
	"github.com/temcen/smartdiet/internal/database"
	"github.com/temcen/smartdiet/internal/ml"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthService struct {
	logger      *logrus.Logger
	critical    map[string]HealthCheck
	nonCritical map[string]HealthCheck
	timeout     time.Duration

	healthCheckStatus   *prometheus.GaugeVec
	lastHealthCheck     *prometheus.GaugeVec
	dbConnectionMetrics *prometheus.GaugeVec
	db                  *database.Database
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
}

// NewHealthService checks the recipe catalog and the preference model as
// critical dependencies. Postgres and Redis are checked only when
// configured and never fail the service on their own.
func NewHealthService(
	reg prometheus.Registerer,
	recipes catalog.Catalog,
	registry *ml.ModelRegistry,
	db *database.Database,
	logger *logrus.Logger,
) *HealthService {
	factory := promauto.With(reg)
	hs := &HealthService{
		logger:      logger,
		critical:    map[string]HealthCheck{},
		nonCritical: map[string]HealthCheck{},
		timeout:     5 * time.Second,
		db:          db,
		healthCheckStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartdiet_health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),
		lastHealthCheck: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartdiet_health_check_timestamp",
			Help: "Timestamp of last health check",
		}, []string{"service"}),
		dbConnectionMetrics: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "smartdiet_database_connection_pool",
			Help: "PostgreSQL connection pool state",
		}, []string{"state"}),
	}

	hs.critical["catalog"] = func(ctx context.Context) error {
		list, err := recipes.Recipes(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("recipe catalog is empty")
		}
		return nil
	}
	if registry != nil {
		hs.critical["preference_model"] = func(context.Context) error {
			_, err := registry.ActiveModel()
			return err
		}
	}
	if db != nil && db.PG != nil {
		hs.nonCritical["postgresql"] = func(ctx context.Context) error {
			return db.PG.Ping(ctx)
		}
	}
	if db != nil && db.Redis != nil {
		hs.nonCritical["redis"] = func(ctx context.Context) error {
			return db.Redis.Ping(ctx).Err()
		}
	}

	return hs
}

// AddCheck registers an extra probe.
func (s *HealthService) AddCheck(name string, critical bool, check HealthCheck) {
	if critical {
		s.critical[name] = check
		return
	}
	s.nonCritical[name] = check
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	allCriticalHealthy := true
	for name, check := range s.critical {
		if err := s.run(ctx, check); err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			s.logger.WithError(err).Errorf("Critical service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = "healthy"
			s.UpdateHealthMetrics(name, true)
		}
	}

	for name, check := range s.nonCritical {
		if err := s.run(ctx, check); err != nil {
			status.Services[name] = "unhealthy"
			status.NonCritical = append(status.NonCritical, name)
			s.logger.WithError(err).Warnf("Non-critical service %s is unhealthy", name)
			s.UpdateHealthMetrics(name, false)
		} else {
			status.Services[name] = "healthy"
			s.UpdateHealthMetrics(name, true)
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	s.collectDatabaseMetrics()
	return status
}

func (s *HealthService) run(ctx context.Context, check HealthCheck) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return check(ctx)
}

func (s *HealthService) collectDatabaseMetrics() {
	if s.db == nil || s.db.PG == nil {
		return
	}
	stats := s.db.PG.Stat()
	s.dbConnectionMetrics.WithLabelValues("acquired_conns").Set(float64(stats.AcquiredConns()))
	s.dbConnectionMetrics.WithLabelValues("idle_conns").Set(float64(stats.IdleConns()))
	s.dbConnectionMetrics.WithLabelValues("max_conns").Set(float64(stats.MaxConns()))
	s.dbConnectionMetrics.WithLabelValues("total_conns").Set(float64(stats.TotalConns()))
}

func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1
	}
	s.healthCheckStatus.WithLabelValues(serviceName).Set(value)
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
