package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge/crawlkit/internal/resource"
)

func TestNewSessionProducesConsistentHeaders(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	sess, err := c.NewSession("example.com")
	require.NoError(t, err)

	assert.Equal(t, sess.Profile.UserAgent, sess.Headers.Get("User-Agent"))
	if sess.Profile.SecChUA != "" {
		assert.Equal(t, sess.Profile.SecChUA, sess.Headers.Get("Sec-CH-UA"))
	}
}

func TestSequentialUAStrategyRotatesDeterministically(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UAStrategy = UASequential
	c := NewController(cfg, nil)

	first := c.ua.NextUserAgent("a.example")
	second := c.ua.NextUserAgent("a.example")
	assert.NotEqual(t, first.UserAgent, second.UserAgent, "sequential strategy must advance on each call")
}

func TestStickyUAStrategyReturnsSameProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UAStrategy = UASticky
	c := NewController(cfg, nil)

	first := c.ua.NextUserAgent("a.example")
	second := c.ua.NextUserAgent("b.example")
	assert.Equal(t, first.UserAgent, second.UserAgent)
}

func TestDomainBasedUAStrategyIsStablePerHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UAStrategy = UADomainBased
	c := NewController(cfg, nil)

	first := c.ua.NextUserAgent("a.example")
	second := c.ua.NextUserAgent("a.example")
	assert.Equal(t, first.UserAgent, second.UserAgent, "domain-based strategy must be stable for the same host")
}

func TestStealthJSEscalatesWithPreset(t *testing.T) {
	vp := Viewport{Width: 1920, Height: 1080}
	loc := Locale{Locale: "en-US", Timezone: "America/New_York"}

	assert.Empty(t, GetStealthJS(PresetNone, vp, loc))
	low := GetStealthJS(PresetLow, vp, loc)
	high := GetStealthJS(PresetHigh, vp, loc)
	assert.Contains(t, low, "webdriver")
	assert.Greater(t, len(high), len(low), "high preset must compose more overrides than low")
}

func TestRandomViewportJitterStaysBounded(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	vp := RandomViewport(c.rng, 0.1)
	assert.Greater(t, vp.Width, 0)
	assert.Greater(t, vp.Height, 0)
}

func TestCheckRateLimitForDomainThreadsIntoLimiter(t *testing.T) {
	limiter := resource.NewRateLimiter(resource.DefaultRateLimiterConfig())
	c := NewController(DefaultConfig(), limiter)

	ok, _ := c.CheckRateLimitForDomain("example.com")
	assert.True(t, ok)
	c.RecordRequestResult("example.com", false, 429)
}

func TestCheckRateLimitForDomainWithoutLimiterAlwaysAllows(t *testing.T) {
	c := NewController(DefaultConfig(), nil)
	ok, wait := c.CheckRateLimitForDomain("example.com")
	assert.True(t, ok)
	assert.Zero(t, wait)
}
