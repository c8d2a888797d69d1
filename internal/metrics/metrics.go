package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks ledger mutations by operation and outcome.
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_mutations_total",
			Help: "Total number of ledger mutations (by operation and result).",
		},
		[]string{"operation", "result"}, // result = "ok" | "error"
	)

	// Gauges the number of live socket connections.
	SocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_socket_connections",
			Help: "Number of currently registered socket connections.",
		},
	)

	// Tracks broadcast dispatches by entity kind and update type.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_broadcasts_total",
			Help: "Total number of broadcast dispatches (by entity and updateType).",
		},
		[]string{"entity", "update_type"}, // entity = "product" | "category"
	)

	// Tracks per-connection send failures during broadcast.
	BroadcastSendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_broadcast_send_failures_total",
			Help: "Number of per-connection send failures during broadcast fan-out.",
		},
	)

	// Tracks socket commands by action and outcome.
	SocketCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_socket_commands_total",
			Help: "Total number of inbound socket commands processed.",
		},
		[]string{"action", "result"},
	)

	// Tracks change events dropped by the bus on subscriber overflow.
	EventOverflowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_event_overflows_total",
			Help: "Number of change-event overflows observed by the broadcast coordinator.",
		},
	)
)

func IncMutation(operation, result string) {
	MutationsTotal.WithLabelValues(operation, result).Inc()
}

func IncSocketCommand(action, result string) {
	SocketCommandsTotal.WithLabelValues(action, result).Inc()
}

func IncBroadcast(entity, updateType string) {
	BroadcastsTotal.WithLabelValues(entity, updateType).Inc()
}
