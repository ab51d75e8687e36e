package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialblog_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by SQL verb.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialblog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// DatabaseQueryErrors counts failed statements by SQL verb.
	DatabaseQueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialblog_database_query_errors_total",
		Help: "Database statements that returned an error",
	}, []string{"operation"})

	// WebSocketConnectionsTotal is the gauge of open notification sockets.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialblog_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts notifications dropped because a client was too slow.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialblog_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// ContentCreated counts posts and comments created.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialblog_content_created_total",
		Help: "Posts and comments created",
	}, []string{"kind"})

	// FriendToggles counts friendship changes by direction (added|removed).
	FriendToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialblog_friend_toggles_total",
		Help: "Friendship add/remove operations",
	}, []string{"action"})

	// Registrations counts accounts created.
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialblog_registrations_total",
		Help: "Accounts registered",
	})
)

// ObserveQuery records one SQL statement. The label is the statement's leading verb.
func ObserveQuery(sql string, elapsed time.Duration, failed bool) {
	op := queryVerb(sql)
	DatabaseQueryLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	if failed {
		DatabaseQueryErrors.WithLabelValues(op).Inc()
	}
}

func queryVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	switch verb := strings.ToLower(fields[0]); verb {
	case "select", "insert", "update", "delete":
		return verb
	default:
		return "other"
	}
}
