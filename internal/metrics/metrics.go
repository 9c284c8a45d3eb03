// Package metrics exposes Prometheus counters for the board service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// RoomEntries counts successful room entries, labelled by whether the
	// room required an access code.
	RoomEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomboard",
		Name:      "room_entries_total",
		Help:      "Successful room entries.",
	}, []string{"locked"})

	// AccessDenied counts rejected access code submissions.
	AccessDenied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roomboard",
		Name:      "access_denied_total",
		Help:      "Access code submissions that did not match.",
	})

	// StoreErrors counts store failures by classified kind.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomboard",
		Name:      "store_errors_total",
		Help:      "Store operations that failed, by error kind.",
	}, []string{"kind"})

	// ImportedReminders counts reminders inserted through bulk import.
	ImportedReminders = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roomboard",
		Name:      "imported_reminders_total",
		Help:      "Reminders inserted by import.",
	})

	// ImportSkipped counts import entries dropped for missing titles.
	ImportSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "roomboard",
		Name:      "import_skipped_total",
		Help:      "Import entries skipped during validation.",
	})

	// FeedNotifications counts change-feed notifications by channel.
	FeedNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roomboard",
		Name:      "feed_notifications_total",
		Help:      "Change notifications received from the database.",
	}, []string{"channel"})

	// RequestDuration observes HTTP handler latency by method and route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "roomboard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// ObserveRequest records one handler invocation.
func ObserveRequest(method, route string, start time.Time) {
	RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// Serve runs the metrics endpoint on its own port. It blocks until the
// listener fails.
func Serve(port string, log *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.WithField("port", port).Info("Metrics server starting")
	return http.ListenAndServe(":"+port, mux)
}
