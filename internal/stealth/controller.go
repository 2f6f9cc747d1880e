package stealth

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/webforge/crawlkit/internal/resource"
)

// Config configures a Controller's behavior.
type Config struct {
	Preset          Preset
	UAStrategy      UAStrategy
	ViewportVariance float64
	Seed            int64
}

func DefaultConfig() Config {
	return Config{
		Preset:           PresetLow,
		UAStrategy:       UARandom,
		ViewportVariance: 0.05,
		Seed:             time.Now().UnixNano(),
	}
}

// Session is one resolved stealth identity: the chosen profile, viewport
// and locale, kept together so generate_headers/get_stealth_js stay
// consistent with each other (spec §4.11's consistency invariant).
type Session struct {
	Profile  browserProfile
	Viewport Viewport
	Locale   Locale
	Headers  http.Header
}

// Controller is the Stealth Controller (C12): a pure configuration-driven
// generator with per-session UA rotation state and a rate limiter
// reference, generalized from the teacher's HeaderManager (which only
// merged three static header sources) into a preset-driven identity
// generator with header validation/redaction reused from the teacher's
// HeaderValidator/HeaderRedactor.
type Controller struct {
	cfg       Config
	ua        *uaState
	rng       *rand.Rand
	validator *HeaderValidator
	redactor  *HeaderRedactor
	limiter   *resource.RateLimiter
}

func NewController(cfg Config, limiter *resource.RateLimiter) *Controller {
	return &Controller{
		cfg:       cfg,
		ua:        newUAState(cfg.UAStrategy, cfg.Seed),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		validator: NewHeaderValidator(),
		redactor:  NewHeaderRedactor(),
		limiter:   limiter,
	}
}

// NewSession resolves a full stealth identity for host: a user-agent per
// the configured strategy, a jittered viewport, a locale/timezone pair,
// and the header set matching all of them.
func (c *Controller) NewSession(host string) (*Session, error) {
	profile := c.ua.NextUserAgent(host)
	vp := RandomViewport(c.rng, c.cfg.ViewportVariance)
	loc := RandomLocale(c.rng)
	headers := GenerateHeaders(profile)

	if err := c.validator.Validate(headers); err != nil {
		return nil, err
	}

	return &Session{Profile: profile, Viewport: vp, Locale: loc, Headers: headers}, nil
}

// StealthJS composes the override script for this controller's preset,
// parameterized by the session's own viewport/locale.
func (c *Controller) StealthJS(s *Session) string {
	return GetStealthJS(c.cfg.Preset, s.Viewport, s.Locale)
}

// SafeHeaders returns a redacted, log-safe view of a session's headers.
func (c *Controller) SafeHeaders(s *Session) map[string]string {
	return c.redactor.Redact(s.Headers)
}

// CheckRateLimitForDomain threads into C1's rate limiter, per spec
// §4.11's check_rate_limit_for_domain.
func (c *Controller) CheckRateLimitForDomain(host string) (bool, time.Duration) {
	if c.limiter == nil {
		return true, 0
	}
	return c.limiter.CheckRateLimit(host)
}

// RecordRequestResult threads a request outcome back into C1, per spec
// §4.11's record_request_result.
func (c *Controller) RecordRequestResult(host string, success bool, statusCode int) {
	if c.limiter == nil {
		return
	}
	isRateLimited := statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable
	c.limiter.RecordResult(host, success, isRateLimited)
}
