package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every flameguard collector; the status server exposes it on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// MessagesTotal counts inbound messages by stream and outcome kind.
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flameguard_messages_total",
			Help: "Inbound messages processed, by stream and result.",
		},
		[]string{"topic", "result"}, // topic: telemetry/rental/control/unknown
	)

	FlameAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flameguard_flame_alerts_total",
			Help: "Flame alerts raised by the sliding window.",
		},
	)

	// HazardUnmitigatedTotal counts alerts whose power cutoff failed.
	HazardUnmitigatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flameguard_hazard_unmitigated_total",
			Help: "Flame alerts for which the power could not be cut.",
		},
	)

	ActuatorCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flameguard_actuator_commands_total",
			Help: "Smart plug commands, by command and status.",
		},
		[]string{"command", "status"}, // status: success/failed/timeout/busy
	)

	ActuatorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flameguard_actuator_latency_seconds",
			Help:    "Latency of smart plug commands.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"command"},
	)

	ForwardTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flameguard_forward_total",
			Help: "Records pushed to the backend, by kind and status.",
		},
		[]string{"kind", "status"}, // kind: temperature/flame
	)

	// ActivationState is 1 while a rental is active.
	ActivationState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flameguard_activation_state",
			Help: "1 while a rental is active, 0 otherwise.",
		},
	)

	// PowerCutoff is 1 while power is cut because of a hazard.
	PowerCutoff = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flameguard_power_cutoff",
			Help: "1 while power is cut because of a flame alert.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MessagesTotal,
		FlameAlertsTotal,
		HazardUnmitigatedTotal,
		ActuatorCommandsTotal,
		ActuatorLatency,
		ForwardTotal,
		ActivationState,
		PowerCutoff,
	)
}

// BoolGauge sets g to 1 or 0.
func BoolGauge(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
		return
	}
	g.Set(0)
}
