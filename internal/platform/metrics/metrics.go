package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	DocumentsGenerated prometheus.Counter
	GenerationFailures *prometheus.CounterVec
	RenderDuration     prometheus.Histogram
	LoginAttempts      *prometheus.CounterVec
	UsersCreated       prometheus.Counter
	UsersDeleted       prometheus.Counter
	LogsCleared        prometheus.Counter
	AuditMirrorErrors  prometheus.Counter
}

// New creates and registers all Prometheus metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "docstamp_documents_generated_total",
			Help: "Total number of documents stamped and recorded in the generation log",
		}),
		GenerationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docstamp_generation_failures_total",
			Help: "Generation attempts that did not return a document, by error code",
		}, []string{"reason"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docstamp_render_duration_seconds",
			Help:    "Time spent loading assets and stamping a template",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docstamp_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "docstamp_users_created_total",
			Help: "Total number of users created in the directory",
		}),
		UsersDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "docstamp_users_deleted_total",
			Help: "Total number of users deleted from the directory",
		}),
		LogsCleared: f.NewCounter(prometheus.CounterOpts{
			Name: "docstamp_generation_logs_cleared_total",
			Help: "Number of times the generation log was cleared",
		}),
		AuditMirrorErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "docstamp_audit_mirror_errors_total",
			Help: "Generation log records that could not be mirrored to the broker",
		}),
	}
}

func (m *Metrics) IncrementDocumentsGenerated() {
	m.DocumentsGenerated.Inc()
}

func (m *Metrics) IncrementGenerationFailure(reason string) {
	m.GenerationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRenderDuration(start time.Time) {
	m.RenderDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementUsersDeleted() {
	m.UsersDeleted.Inc()
}

func (m *Metrics) IncrementLogsCleared() {
	m.LogsCleared.Inc()
}

func (m *Metrics) IncrementAuditMirrorErrors() {
	m.AuditMirrorErrors.Inc()
}
