package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNativePoolCheckoutAndReturn(t *testing.T) {
	pool := NewNativePool(NativePoolConfig{MaxSize: 2, InitialWarmup: 2, AcquireTimeout: time.Second, Breaker: DefaultCircuitBreakerConfig()})

	g, err := pool.Checkout(context.Background())
	require.NoError(t, err)
	require.NotNil(t, g.Worker())
	g.Release(OutcomeHealthy)

	require.Equal(t, 2, pool.Size())
}

func TestNativePoolExhaustsAfterMaxSize(t *testing.T) {
	pool := NewNativePool(NativePoolConfig{MaxSize: 1, InitialWarmup: 1, AcquireTimeout: 20 * time.Millisecond, Breaker: DefaultCircuitBreakerConfig()})

	g, err := pool.Checkout(context.Background())
	require.NoError(t, err)

	_, err = pool.Checkout(context.Background())
	require.ErrorIs(t, err, ErrExhausted)

	g.Release(OutcomeHealthy)
}

func TestNativePoolReleaseIsIdempotent(t *testing.T) {
	pool := NewNativePool(NativePoolConfig{MaxSize: 1, InitialWarmup: 1, AcquireTimeout: time.Second, Breaker: DefaultCircuitBreakerConfig()})

	g, err := pool.Checkout(context.Background())
	require.NoError(t, err)

	g.Release(OutcomeHealthy)
	g.Release(OutcomeHealthy) // must not double-return the worker

	require.Equal(t, 1, len(pool.available))
}

func TestNativePoolCircuitOpensOnRepeatedFailure(t *testing.T) {
	cfg := NativePoolConfig{
		MaxSize:        1,
		InitialWarmup:  1,
		AcquireTimeout: time.Second,
		Breaker:        CircuitBreakerConfig{FailureThreshold: 2, Window: time.Minute, Cooldown: time.Hour, HalfOpenQuota: 1},
	}
	pool := NewNativePool(cfg)

	g, _ := pool.Checkout(context.Background())
	g.Release(OutcomeUnhealthy)
	g2, _ := pool.Checkout(context.Background())
	g2.Release(OutcomeUnhealthy)

	_, err := pool.Checkout(context.Background())
	require.ErrorIs(t, err, ErrCircuitOpen)
}
