package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/resilience"
)

func TestBreakerRecordsCarrierOutage(t *testing.T) {
	const target = "carrier-metrics"
	ctx := context.Background()
	breaker := resilience.NewBreaker(1, 0.5, 20*time.Millisecond).WithTarget(target)

	state := func() float64 { return testutil.ToFloat64(resilience.BreakerState.WithLabelValues(target)) }
	moved := func(from, to string) float64 {
		return testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues(target, from, to))
	}

	// One failed manifest trips the breaker.
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, 1.0, state())

	// After the cool-down a trial call is let through and its success closes it again.
	require.Eventually(t, func() bool { return breaker.Allow(ctx) }, 200*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, 2.0, state())
	breaker.Report(ctx, true)
	require.Equal(t, 0.0, state())

	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerOpenedTotal.WithLabelValues(target)))
	require.Equal(t, 1.0, moved("closed", "open"))
	require.Equal(t, 1.0, moved("open", "half_open"))
	require.Equal(t, 1.0, moved("half_open", "closed"))
}
