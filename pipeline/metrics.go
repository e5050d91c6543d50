package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the orchestrator on a
// dedicated registry. The enrichment client registers its own collectors
// on the same registry via Registry.
type Metrics struct {
	Registry         *prometheus.Registry
	JobsTotal        *prometheus.CounterVec
	BatchesTotal     prometheus.Counter
	BatchFailures    prometheus.Counter
	ProductsVerified *prometheus.CounterVec
}

// NewMetrics constructs and registers all orchestrator metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_jobs_total",
			Help: "Total verification jobs by terminal status.",
		},
		[]string{"status"},
	)
	batches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "verify_batches_total",
			Help: "Total enrichment batches processed.",
		},
	)
	batchFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "verify_batch_failures_total",
			Help: "Batches degraded to unenriched verification after a service error.",
		},
	)
	verified := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verify_products_total",
			Help: "Total products verified by resulting status.",
		},
		[]string{"status"},
	)

	registry.MustRegister(jobs, batches, batchFailures, verified)

	return &Metrics{
		Registry:         registry,
		JobsTotal:        jobs,
		BatchesTotal:     batches,
		BatchFailures:    batchFailures,
		ProductsVerified: verified,
	}
}

// IncJob counts a job reaching a terminal status.
func (m *Metrics) IncJob(status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
}

// IncBatch counts one processed batch.
func (m *Metrics) IncBatch() {
	if m == nil {
		return
	}
	m.BatchesTotal.Inc()
}

// IncBatchFailure counts one degraded batch.
func (m *Metrics) IncBatchFailure() {
	if m == nil {
		return
	}
	m.BatchFailures.Inc()
}

// IncVerified counts a verified product by status.
func (m *Metrics) IncVerified(status string) {
	if m == nil {
		return
	}
	m.ProductsVerified.WithLabelValues(status).Inc()
}
