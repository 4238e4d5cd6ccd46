package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records repository call latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devhabit_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SlowQueries counts statements slower than the GORM logger threshold.
	SlowQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devhabit_database_slow_queries_total",
		Help: "Database statements slower than the slow query threshold",
	})

	// SessionEvents counts session lifecycle transitions (login, logout, logout_all, rejected).
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhabit_session_events_total",
		Help: "Session lifecycle events by type",
	}, []string{"event"})

	// MetricsDropped counts goal metrics discarded by the category whitelist.
	MetricsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devhabit_goal_metrics_dropped_total",
		Help: "Goal metrics dropped because their type is not allowed for the goal category",
	}, []string{"category"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordSessionEvent increments the session events counter.
func RecordSessionEvent(event string) {
	SessionEvents.WithLabelValues(event).Inc()
}

// RecordMetricsDropped adds n to the dropped metrics counter for the category.
func RecordMetricsDropped(category string, n int) {
	if n <= 0 {
		return
	}
	MetricsDropped.WithLabelValues(category).Add(float64(n))
}
