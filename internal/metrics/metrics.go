package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "autotrade_bars_total", Help: "Bars evaluated by the runner"},
		[]string{"symbol", "src"},
	)
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "autotrade_decisions_total", Help: "Engine decisions by phase, kind and code"},
		[]string{"phase", "kind", "code"},
	)
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "autotrade_validation_failures_total", Help: "Records rejected by contract validation"},
		[]string{"record"},
	)
	PublishFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "autotrade_publish_failures_total", Help: "Failed writes to decision and bar sinks"},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(BarsTotal, DecisionsTotal, ValidationFailuresTotal, PublishFailuresTotal)
}
