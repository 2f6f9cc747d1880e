package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webforge/crawlkit/internal/models"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(10, time.Minute, false)
	key := Key("https://example.com/a", "default")

	_, ok := c.Get(key)
	require.False(t, ok)

	c.Store(key, models.PipelineResult{URL: "https://example.com/a", QualityScore: 0.8})

	got, ok := c.Get(key)
	require.True(t, ok)
	require.True(t, got.FromCache)
	require.Equal(t, 0.8, got.QualityScore)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	c := NewCache(10, time.Millisecond, false)
	key := Key("https://example.com/a", "default")
	c.Store(key, models.PipelineResult{URL: "https://example.com/a"})

	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestCacheBypassModeNeverStoresOrReturns(t *testing.T) {
	c := NewCache(10, time.Minute, true)
	key := Key("https://example.com/a", "default")
	c.Store(key, models.PipelineResult{URL: "https://example.com/a"})

	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	k1 := Key("https://example.com/a", "default")
	k2 := Key("https://example.com/a", "default")
	k3 := Key("https://example.com/a", "trek")
	require.Equal(t, k1, k2)
	require.NotEqual(t, k1, k3)
}
