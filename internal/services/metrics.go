package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	fuzzyFallback   prometheus.Counter
	unknownDietTags prometheus.Counter
	rankingLatency  prometheus.Histogram
	planCache       *prometheus.CounterVec
	events          *prometheus.CounterVec
	preference      *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartdiet_requests_total",
			Help: "Profiling, recommendation and plan requests by operation and outcome",
		}, []string{"operation", "outcome"}),

		fuzzyFallback: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartdiet_fuzzy_fallback_total",
			Help: "Profiles that fell back to equal diet weights because no rule fired",
		}),

		unknownDietTags: factory.NewCounter(prometheus.CounterOpts{
			Name: "smartdiet_unknown_diet_tags_total",
			Help: "Recipes ranked with a diet tag outside the known classes",
		}),

		rankingLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartdiet_ranking_duration_seconds",
			Help:    "Time spent ranking one candidate set",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		planCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartdiet_plan_cache_total",
			Help: "Plan cache lookups by result",
		}, []string{"result"}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartdiet_events_published_total",
			Help: "Domain events handed to the publisher by type and outcome",
		}, []string{"event_type", "outcome"}),

		preference: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smartdiet_preference_batches_total",
			Help: "Preference scorer batch calls by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveRequest(operation string, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) FuzzyFallback() {
	if m == nil {
		return
	}
	m.fuzzyFallback.Inc()
}

func (m *Metrics) UnknownDietTag() {
	if m == nil {
		return
	}
	m.unknownDietTags.Inc()
}

func (m *Metrics) ObserveRanking(d time.Duration) {
	if m == nil {
		return
	}
	m.rankingLatency.Observe(d.Seconds())
}

func (m *Metrics) PlanCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.planCache.WithLabelValues(result).Inc()
}

func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, outcome(err)).Inc()
}

func (m *Metrics) PreferenceBatch(err error) {
	if m == nil {
		return
	}
	m.preference.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
