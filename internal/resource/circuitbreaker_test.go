package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerTripsOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, Window: time.Minute, Cooldown: 10 * time.Millisecond, HalfOpenQuota: 1})

	require.True(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	require.Equal(t, CircuitClosed, cb.State())
	cb.RecordFailure()

	require.Equal(t, CircuitOpen, cb.State())
	require.False(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenRecoversOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, Window: time.Minute, Cooldown: 5 * time.Millisecond, HalfOpenQuota: 1})

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	time.Sleep(10 * time.Millisecond)
	require.True(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	require.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerHalfOpenReopensOnFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, Window: time.Minute, Cooldown: 5 * time.Millisecond, HalfOpenQuota: 1})

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	require.True(t, cb.Allow())
	cb.RecordFailure()

	require.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreakerHalfOpenQuotaLimitsConcurrentProbes(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, Window: time.Minute, Cooldown: 5 * time.Millisecond, HalfOpenQuota: 1})

	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	require.True(t, cb.Allow())
	require.False(t, cb.Allow())
}
