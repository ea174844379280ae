package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	registry *prometheus.Registry

	RunsStarted  prometheus.Counter
	RunsFinished *prometheus.CounterVec
	ActiveRuns   prometheus.Gauge
	Steps        *prometheus.CounterVec
	RunSteps     prometheus.Histogram
	RunDuration  *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[string]time.Time
}

// NewMetrics registers the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ratmaze_runs_started_total",
			Help: "Total number of started runs",
		}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratmaze_runs_finished_total",
			Help: "Total number of finished runs by outcome",
		}, []string{"status"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ratmaze_active_runs",
			Help: "Number of runs in progress",
		}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ratmaze_steps_total",
			Help: "Delivered step events by kind and safety",
		}, []string{"kind", "safe"}),
		RunSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratmaze_run_steps",
			Help:    "Number of events delivered per run",
			Buckets: prometheus.ExponentialBuckets(4, 2, 10),
		}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ratmaze_run_duration_seconds",
			Help:    "Wall-clock duration of runs by outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		starts: make(map[string]time.Time),
	}
	m.registry.MustRegister(m.RunsStarted, m.RunsFinished, m.ActiveRuns, m.Steps, m.RunSteps, m.RunDuration)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsStarted.Inc()
			m.ActiveRuns.Inc()
			m.mu.Lock()
			m.starts[e.RunID] = e.Timestamp
			m.mu.Unlock()
		},
		OnEnter:     m.recordStep,
		OnBacktrack: m.recordStep,
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.ActiveRuns.Dec()
			if e.Outcome == nil {
				return
			}
			status := string(e.Outcome.Status)
			m.RunsFinished.WithLabelValues(status).Inc()
			m.RunSteps.Observe(float64(e.Outcome.Steps))

			m.mu.Lock()
			start, ok := m.starts[e.RunID]
			delete(m.starts, e.RunID)
			m.mu.Unlock()
			if ok {
				m.RunDuration.WithLabelValues(status).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
	}
}

func (m *Metrics) recordStep(ctx context.Context, e *domain.StepEvent) {
	safe := "false"
	if e.Safe {
		safe = "true"
	}
	m.Steps.WithLabelValues(string(e.Kind), safe).Inc()
}
