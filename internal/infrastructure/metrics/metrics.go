package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RelayMetrics holds the Prometheus metrics for the notification relay.
type RelayMetrics struct {
	OrdersTotal      *prometheus.CounterVec
	SendsTotal       *prometheus.CounterVec
	BotCommandsTotal *prometheus.CounterVec
}

// NewRelayMetrics initializes and registers the metrics on the default
// registry.
func NewRelayMetrics() *RelayMetrics {
	return &RelayMetrics{
		OrdersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notify_relay",
			Subsystem: "fanout",
			Name:      "orders_total",
			Help:      "Order webhooks by outcome (sent or skip reason).",
		}, []string{"outcome"}),
		SendsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notify_relay",
			Subsystem: "fanout",
			Name:      "sends_total",
			Help:      "Per-recipient delivery attempts by result.",
		}, []string{"result"}),
		BotCommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notify_relay",
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Bot commands handled, by command.",
		}, []string{"command"}),
	}
}

// NewNopRelayMetrics returns metrics backed by an isolated registry, for
// tests that construct services repeatedly.
func NewNopRelayMetrics() *RelayMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &RelayMetrics{
		OrdersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_total",
		}, []string{"outcome"}),
		SendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sends_total",
		}, []string{"result"}),
		BotCommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commands_total",
		}, []string{"command"}),
	}
}
