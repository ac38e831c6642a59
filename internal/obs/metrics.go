// Package obs exposes Prometheus metrics for the session flows.
package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	flowOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskpad_session_flow_outcomes_total",
			Help: "Terminal outcomes of session flows.",
		},
		[]string{"flow", "outcome"},
	)

	refreshTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "riskpad_refresh_scheduler_ticks_total",
		Help: "Refresh scheduler ticks fired.",
	})

	refreshShortCircuits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskpad_refresh_short_circuits_total",
			Help: "Refresh flow exits that avoided a network call.",
		},
		[]string{"reason"},
	)
)

var initOnce sync.Once

// Init registers the session metrics with the default registry.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(flowOutcomes, refreshTicks, refreshShortCircuits)
	})
}

func RecordFlowOutcome(flow, outcome string) {
	flowOutcomes.WithLabelValues(flow, outcome).Inc()
}

func RecordRefreshTick() {
	refreshTicks.Inc()
}

func RecordRefreshShortCircuit(reason string) {
	refreshShortCircuits.WithLabelValues(reason).Inc()
}
