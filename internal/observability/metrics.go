package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by command.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_redis_error_rate_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// FriendshipTransitions counts committed friend-graph transitions.
	FriendshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_friendship_transitions_total",
		Help: "Total number of committed friendship state transitions",
	}, []string{"transition"})

	// TransactionRetries counts optimistic transactions retried after a concurrent write.
	TransactionRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_transaction_retries_total",
		Help: "Total number of WATCH/MULTI transactions retried after losing a race",
	}, []string{"operation"})

	// MessagesAppended counts messages appended to conversation logs.
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hearth_messages_appended_total",
		Help: "Total number of messages appended to conversation logs",
	})

	// EventsPublished counts user events handed to the pub/sub channel.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_events_published_total",
		Help: "Total number of user events published",
	}, []string{"event_type"})

	// EventsDropped counts user events that never reached the channel.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_events_dropped_total",
		Help: "Total number of user events dropped before publish",
	}, []string{"reason"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket sessions.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hearth_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
