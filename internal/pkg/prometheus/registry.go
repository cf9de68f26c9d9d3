package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)
)

func GetRegistry() *prometheus.Registry {
	return registry
}

// Daemon-level metrics, registered on the private registry and exposed by
// the gateway HTTP server's metrics endpoint.
var (
	GatewayQueueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "pa",
		Subsystem: "gateway",
		Name:      "queue_depth",
		Help:      "Messages currently waiting in the gateway queue.",
	})

	GatewayTurnsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pa",
		Subsystem: "gateway",
		Name:      "turns_total",
		Help:      "Agent turns processed, by source and outcome.",
	}, []string{"source", "outcome"})

	GatewayDroppedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pa",
		Subsystem: "gateway",
		Name:      "dropped_total",
		Help:      "Inbound messages dropped because the queue was full.",
	})

	CronFiresTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "pa",
		Subsystem: "cron",
		Name:      "fires_total",
		Help:      "Cron jobs fired.",
	})

	HeartbeatTicksTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pa",
		Subsystem: "heartbeat",
		Name:      "ticks_total",
		Help:      "Heartbeat ticks, by disposition (sent, skipped).",
	}, []string{"disposition"})
)
