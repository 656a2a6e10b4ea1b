package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	DbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type"},
	)

	OutboxPublishFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_failures_total",
			Help: "Total number of outbox publish failures",
		},
		[]string{"topic"},
	)

	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Messages committed to the message log",
		},
	)

	FanoutRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_fanout_recipients",
			Help:    "Notification rows written per sent message",
			Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100, 250},
		},
	)

	EventDispatchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_event_dispatch_failures_total",
			Help: "Events that could not be handed to a dispatcher",
		},
		[]string{"dispatcher"},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_total",
			Help: "Commands executed on the command bus",
		},
		[]string{"command", "status"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_command_duration_seconds",
			Help:    "Duration of command bus executions",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

// TimeQuery starts a timer for a query; call the returned func when done.
func TimeQuery(queryType string) func() {
	start := time.Now()
	return func() {
		DbQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
	}
}
