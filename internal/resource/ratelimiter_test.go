package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	cfg.BurstSize = 2
	cfg.BaseRatePerSecond = 1
	rl := NewRateLimiter(cfg)

	ok1, _ := rl.CheckRateLimit("example.com")
	ok2, _ := rl.CheckRateLimit("example.com")
	ok3, wait := rl.CheckRateLimit("example.com")

	require.True(t, ok1)
	require.True(t, ok2)
	require.False(t, ok3)
	require.Greater(t, wait, time.Duration(0))
}

func TestRateLimiterBackoffOnRateLimitError(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.RecordResult("example.com", false, true)

	rl.mu.Lock()
	mult := rl.buckets["example.com"].backoffMult
	rl.mu.Unlock()

	require.Equal(t, 2.0, mult)
}

func TestRateLimiterDecaysOnSustainedSuccess(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.RecordResult("example.com", false, true)
	for i := 0; i < 5; i++ {
		rl.RecordResult("example.com", true, false)
	}

	rl.mu.Lock()
	mult := rl.buckets["example.com"].backoffMult
	rl.mu.Unlock()

	require.Equal(t, 1.0, mult)
}

func TestRateLimiterCleanupEvictsIdleHosts(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.CheckRateLimit("idle.example.com")

	rl.mu.Lock()
	rl.buckets["idle.example.com"].lastAccess = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	evicted := rl.Cleanup()
	require.Equal(t, 1, evicted)
}

func TestRateLimiterNeverBlocks(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			rl.CheckRateLimit("example.com")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CheckRateLimit blocked")
	}
}
