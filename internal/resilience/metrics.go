package resilience

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	// BreakerState exposes the current breaker state per target: 0=closed,1=open,2=half-open.
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "storefront",
		Name:      "breaker_state",
		Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
	}, []string{"target"})
	// BreakerTransitions counts state transitions per target.
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "breaker_transition_total",
		Help:      "Count of breaker state transitions.",
	}, []string{"target", "from", "to"})
	// BreakerOpenedTotal counts how often a breaker opened.
	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "breaker_open_total",
		Help:      "Number of times a breaker transitioned into open state.",
	}, []string{"target"})
)

// MustRegisterMetrics registers the breaker collectors once. A nil registerer
// means the default one.
func MustRegisterMetrics(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		for _, c := range []prometheus.Collector{BreakerState, BreakerTransitions, BreakerOpenedTotal} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				panic(err)
			}
		}
	})
}
