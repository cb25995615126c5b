// Package metrics defines Prometheus metrics for cardledger.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardledger_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardledger_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	QuotaRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_quota_rejections_total",
			Help: "Uploads rejected for exceeding the record byte budget",
		},
	)

	BlobRollbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardledger_blob_rollbacks_total",
			Help: "Object store rollbacks after a failed edit",
		},
	)

	SweepQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_sweep_queue_depth",
			Help: "Current orphaned blob sweep queue depth",
		},
	)

	PendingProposals = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardledger_pending_proposals",
			Help: "Change proposals awaiting review",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		QuotaRejections, BlobRollbacks,
		SweepQueueDepth, PendingProposals,
	)
}
