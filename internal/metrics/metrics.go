// Package metrics exposes Prometheus collectors for the workflow engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sbms"

var (
	ComplaintsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "complaints_submitted_total",
		Help:      "Complaints filed, by routed department.",
	}, []string{"department"})

	ComplaintStatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "complaint_status_updates_total",
		Help:      "Complaint status changes, by target status.",
	}, []string{"status"})

	PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "points_awarded_total",
		Help:      "Points credited to users, by reason.",
	}, []string{"reason"})

	AwardFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "award_failures_total",
		Help:      "Point awards that could not be applied.",
	}, []string{"reason"})

	LostItemsReported = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lost_items_reported_total",
		Help:      "Lost-item reports filed.",
	})

	LostItemStatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lost_item_status_updates_total",
		Help:      "Lost-item status changes, by target status.",
	}, []string{"status"})

	ImageStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_store_failures_total",
		Help:      "Uploaded images that could not be written to disk.",
	})

	ComplaintsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "complaints",
		Help:      "Complaints on record, refreshed periodically.",
	})

	OpenComplaints = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_complaints",
		Help:      "Complaints pending review or in progress, by department.",
	}, []string{"department"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
