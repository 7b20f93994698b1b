// Package metrics owns the Prometheus collectors for HTTP traffic and
// workout events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	registry *prometheus.Registry

	// http
	CounterRequests     *prometheus.CounterVec
	CounterPanics       prometheus.Counter
	GaugeRequests       prometheus.Gauge
	HistRequestDuration prometheus.Histogram

	// workouts
	CounterSetsLogged       *prometheus.CounterVec
	CounterPRAlerts         *prometheus.CounterVec
	CounterSessionsFinished *prometheus.CounterVec
	CounterImportedSessions *prometheus.CounterVec
}

// NewTestManager returns a manager on a private registry without process collectors.
func NewTestManager() *Manager {
	return newManager("liftlog", "test", prometheus.NewRegistry())
}

// NewManager returns a manager whose registry also carries the Go runtime
// and process collectors.
func NewManager(namespace string) *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newManager(namespace, "", reg)
}

func newManager(namespace, subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		registry: reg,
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "status"}),
		CounterPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Current number of requests being served",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		CounterSetsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sets_logged_total",
			Help:      "Sets completed during live sessions",
		}, []string{"exercise_type"}),
		CounterPRAlerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pr_alerts_total",
			Help:      "Live personal record alerts",
		}, []string{"kind"}),
		CounterSessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_finished_total",
			Help:      "Sessions that left the active state",
		}, []string{"status"}),
		CounterImportedSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "imported_sessions_total",
			Help:      "Sessions written by importers",
		}, []string{"source"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) SetLogged(exerciseType string) {
	m.CounterSetsLogged.WithLabelValues(exerciseType).Inc()
}

func (m *Manager) PRAlert(kind string) {
	m.CounterPRAlerts.WithLabelValues(kind).Inc()
}

func (m *Manager) SessionFinished(status string) {
	m.CounterSessionsFinished.WithLabelValues(status).Inc()
}

func (m *Manager) SessionsImported(source string, n int) {
	m.CounterImportedSessions.WithLabelValues(source).Add(float64(n))
}
