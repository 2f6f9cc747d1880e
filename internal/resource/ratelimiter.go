package resource

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// RateLimiter is a per-host token bucket with jitter and adaptive
// backoff on 429/503, generalized from the teacher's page_pool retry
// ladder and the pack's ConcurrentRateLimiter (rohmanhakim-docs-crawler
// pkg/limiter/rate.go), which tracked per-host timing and backoff the
// same way but drove a fixed-delay crawl loop rather than a token
// bucket.
type RateLimiter struct {
	mu sync.Mutex

	baseRate        float64 // tokens/sec/host
	burstSize       float64
	jitterPct       float64
	minDelay        time.Duration
	maxDelay        time.Duration
	backoffFactor   float64
	maxBackoffMult  float64
	idleTTL         time.Duration

	buckets map[string]*hostBucket
	rng     *rand.Rand
}

type hostBucket struct {
	tokens       float64
	lastRefill   time.Time
	lastAccess   time.Time
	backoffMult  float64
	successCount int
}

// RateLimiterConfig mirrors spec §4.1's tunables.
type RateLimiterConfig struct {
	BaseRatePerSecond float64
	BurstSize         int
	JitterPercentage  float64
	MinDelay          time.Duration
	MaxDelay          time.Duration
	BackoffFactor     float64
	MaxBackoffMult    float64
	IdleTTL           time.Duration
}

// DefaultRateLimiterConfig matches spec defaults (1.5 req/s/host).
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		BaseRatePerSecond: 1.5,
		BurstSize:         3,
		JitterPercentage:  0.2,
		MinDelay:          50 * time.Millisecond,
		MaxDelay:          30 * time.Second,
		BackoffFactor:     2.0,
		MaxBackoffMult:    16.0,
		IdleTTL:           10 * time.Minute,
	}
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		baseRate:       cfg.BaseRatePerSecond,
		burstSize:      float64(cfg.BurstSize),
		jitterPct:      cfg.JitterPercentage,
		minDelay:       cfg.MinDelay,
		maxDelay:       cfg.MaxDelay,
		backoffFactor:  cfg.BackoffFactor,
		maxBackoffMult: cfg.MaxBackoffMult,
		idleTTL:        cfg.IdleTTL,
		buckets:        make(map[string]*hostBucket),
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CheckRateLimit atomically refills a host's bucket by elapsed time and
// consumes one token if available. It never blocks: when no token is
// available it returns the duration the caller should wait before
// retrying.
func (rl *RateLimiter) CheckRateLimit(host string) (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b := rl.bucketFor(host, now)
	rl.refill(b, now)

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		b.lastAccess = now
		return true, 0
	}

	effectiveRate := rl.baseRate / b.backoffMult
	deficit := 1.0 - b.tokens
	wait := time.Duration(deficit/effectiveRate*float64(time.Second)) + 1
	wait = rl.withJitterAndClamp(wait)
	b.lastAccess = now
	return false, wait
}

// RecordResult applies the adaptive backoff/decay rule: a rate-limit
// error multiplies the host's effective interval (caps at maxBackoffMult);
// sustained success decays back toward the base rate.
func (rl *RateLimiter) RecordResult(host string, success bool, isRateLimitError bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b := rl.bucketFor(host, now)

	if isRateLimitError {
		b.backoffMult = math.Min(b.backoffMult*rl.backoffFactor, rl.maxBackoffMult)
		b.successCount = 0
		return
	}
	if success {
		b.successCount++
		if b.successCount >= 5 && b.backoffMult > 1.0 {
			b.backoffMult = math.Max(1.0, b.backoffMult/rl.backoffFactor)
			b.successCount = 0
		}
	} else {
		b.successCount = 0
	}
}

// Cleanup evicts host entries idle beyond the configured TTL. Intended
// to run on a coarse interval (minutes) from a background goroutine.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	evicted := 0
	for host, b := range rl.buckets {
		if now.Sub(b.lastAccess) > rl.idleTTL {
			delete(rl.buckets, host)
			evicted++
		}
	}
	return evicted
}

func (rl *RateLimiter) bucketFor(host string, now time.Time) *hostBucket {
	b, ok := rl.buckets[host]
	if !ok {
		b = &hostBucket{tokens: rl.burstSize, lastRefill: now, lastAccess: now, backoffMult: 1.0}
		rl.buckets[host] = b
	}
	return b
}

func (rl *RateLimiter) refill(b *hostBucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rate := rl.baseRate / b.backoffMult
	b.tokens = math.Min(rl.burstSize, b.tokens+elapsed*rate)
	b.lastRefill = now
}

func (rl *RateLimiter) withJitterAndClamp(d time.Duration) time.Duration {
	jitterRange := float64(d) * rl.jitterPct
	jitter := (rl.rng.Float64()*2 - 1) * jitterRange
	out := time.Duration(float64(d) + jitter)
	if out < rl.minDelay {
		out = rl.minDelay
	}
	if out > rl.maxDelay {
		out = rl.maxDelay
	}
	return out
}
