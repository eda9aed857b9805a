package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	RuntimeResolves    *prometheus.CounterVec
	ConsentsRecorded   *prometheus.CounterVec
	ConsentsCoalesced  prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	AuditEvents        *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	CatalogRefreshes   *prometheus.CounterVec
	EndpointLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RuntimeResolves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ucm_runtime_resolves_total",
			Help: "Total number of runtime config resolutions, labeled by region and GPC state",
		}, []string{"region", "gpc"}),
		ConsentsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ucm_consents_recorded_total",
			Help: "Total number of consent records written, labeled by region",
		}, []string{"region"}),
		ConsentsCoalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ucm_consents_coalesced_total",
			Help: "Total number of duplicate consent submissions coalesced within the dedupe window",
		}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ucm_consent_validation_failures_total",
			Help: "Total number of rejected consent submissions, labeled by reason",
		}, []string{"reason"}),
		AuditEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ucm_audit_events_total",
			Help: "Total number of audit events appended, labeled by type",
		}, []string{"type"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ucm_audit_write_failures_total",
			Help: "Total number of audit events that failed to persist (monitored for gaps)",
		}),
		CatalogRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ucm_catalog_refreshes_total",
			Help: "Total number of policy catalog snapshot refreshes, labeled by outcome",
		}, []string{"outcome"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ucm_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
