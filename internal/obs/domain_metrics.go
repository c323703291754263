package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by result code ("completed" on success).
	CheckoutTotal *prometheus.CounterVec
	// CheckoutRevenueCents accumulates settled order totals in cents.
	CheckoutRevenueCents prometheus.Counter
	// CheckoutDuration records checkout latency in milliseconds.
	CheckoutDuration prometheus.Histogram
	// UnitsSoldTotal counts units removed from inventory per product.
	UnitsSoldTotal *prometheus.CounterVec
	// ShippingNotifyTotal counts shipping notifications by outcome.
	ShippingNotifyTotal *prometheus.CounterVec
	// CartAddTotal counts add-to-cart attempts by outcome.
	CartAddTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers storefront Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"})
		CheckoutRevenueCents = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_revenue_cents_total",
			Help:      "Sum of settled order totals in cents.",
		})
		CheckoutDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Checkout latency in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
		})
		UnitsSoldTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_sold_total",
			Help:      "Units removed from inventory by settlement.",
		}, []string{"product"})
		ShippingNotifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_notify_total",
			Help:      "Count of shipping notifications by outcome.",
		}, []string{"result"})
		CartAddTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_add_total",
			Help:      "Count of add-to-cart attempts by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutRevenueCents, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CheckoutRevenueCents = v
			}
		})
		mustRegisterCollector(reg, CheckoutDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CheckoutDuration = v
			}
		})
		mustRegisterCollector(reg, UnitsSoldTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				UnitsSoldTotal = v
			}
		})
		mustRegisterCollector(reg, ShippingNotifyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ShippingNotifyTotal = v
			}
		})
		mustRegisterCollector(reg, CartAddTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartAddTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
