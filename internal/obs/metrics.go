package obs

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	EntryTotal *prometheus.CounterVec // result=accepted|duplicate|capacity|error
	ExitTotal  *prometheus.CounterVec // result=released|not_found|error

	OpLatencyMS *prometheus.HistogramVec // op=validate|entry|exit|history

	GateCommandTotal *prometheus.CounterVec // command=open|close, result=ok|busy|unavailable|timeout
}

func NewMetrics() *Metrics {
	m := &Metrics{
		EntryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parking_entry_total",
				Help: "Total vehicle entry attempts by result",
			},
			[]string{"result"},
		),
		ExitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parking_exit_total",
				Help: "Total vehicle exit attempts by result",
			},
			[]string{"result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parking_op_latency_ms",
				Help:    "Latency of admission operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms .. ~2048ms
			},
			[]string{"op"},
		),
		GateCommandTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_command_total",
				Help: "Total gate commands by result",
			},
			[]string{"command", "result"},
		),
	}

	prometheus.MustRegister(
		m.EntryTotal,
		m.ExitTotal,
		m.OpLatencyMS,
		m.GateCommandTotal,
	)

	return m
}
