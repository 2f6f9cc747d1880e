package llm

import (
	"context"
	"time"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/resource"
)

// Config bounds one Pool's concurrency and circuit-breaker behavior.
type Config struct {
	GlobalConcurrency int
	CircuitBreaker    resource.CircuitBreakerConfig
	Retry             RetryConfig
	Strategy          Strategy
}

func DefaultConfig() Config {
	return Config{
		GlobalConcurrency: 8,
		CircuitBreaker:    resource.DefaultCircuitBreakerConfig(),
		Retry:             DefaultRetryConfig(),
		Strategy:          StrategySequential,
	}
}

// Pool wraps a failover Chain of providers with a global concurrency
// semaphore, per-provider circuit breakers, retry with backoff, and
// pool-wide Stats — spec §4.10's full LLM client pool.
type Pool struct {
	cfg   Config
	sem   chan struct{}
	chain *Chain
	stats *Stats
}

func NewPool(cfg Config) *Pool {
	if cfg.GlobalConcurrency < 1 {
		cfg.GlobalConcurrency = 1
	}
	return &Pool{
		cfg:   cfg,
		sem:   make(chan struct{}, cfg.GlobalConcurrency),
		chain: NewChain(cfg.Strategy),
		stats: NewStats(),
	}
}

// AddProvider registers a provider with its own circuit breaker and stats.
func (p *Pool) AddProvider(provider Provider) {
	p.chain.Add(newDeployment(provider, p.cfg.CircuitBreaker))
}

func (p *Pool) Stats() *Stats { return p.stats }

// Complete dispatches req across the failover chain: acquire the global
// semaphore, pick the best available deployment, retry it per
// RetryConfig, and failover to the next candidate on CircuitOpen or
// retry exhaustion. Returns ErrResourceExhausted if no deployment in the
// chain can serve the request.
func (p *Pool) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	waitStart := time.Now()
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return CompletionResponse{}, ctx.Err()
	}
	p.stats.RecordWait(time.Since(waitStart))
	defer func() { <-p.sem }()

	candidates := p.chain.Candidates(req.MaxTokens)
	if len(candidates) == 0 {
		return CompletionResponse{}, models.NewError(models.ErrResourceExhausted, "no available LLM deployment", nil)
	}

	var lastErr error
	for i, d := range candidates {
		if i > 0 {
			p.stats.RecordFailover()
		}
		p.stats.RecordAttempt()
		start := time.Now()

		var resp CompletionResponse
		err := withRetry(ctx, p.cfg.Retry, p.stats, func() error {
			var callErr error
			resp, callErr = d.provider.Complete(ctx, req)
			return callErr
		})

		if err == nil {
			d.breaker.RecordSuccess()
			d.stats.RecordSuccess(time.Since(start))
			p.stats.RecordSuccess(time.Since(start))
			return resp, nil
		}

		d.breaker.RecordFailure()
		d.stats.RecordFailure()
		p.stats.RecordFailure()
		if d.breaker.State() == resource.CircuitOpen {
			p.stats.RecordCircuitTrip()
		}
		lastErr = err
	}
	return CompletionResponse{}, lastErr
}

// Embed mirrors Complete's dispatch for embedding requests.
func (p *Pool) Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error) {
	waitStart := time.Now()
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return EmbedResponse{}, ctx.Err()
	}
	p.stats.RecordWait(time.Since(waitStart))
	defer func() { <-p.sem }()

	candidates := p.chain.Candidates(0)
	if len(candidates) == 0 {
		return EmbedResponse{}, models.NewError(models.ErrResourceExhausted, "no available LLM deployment", nil)
	}

	var lastErr error
	for i, d := range candidates {
		if i > 0 {
			p.stats.RecordFailover()
		}
		p.stats.RecordAttempt()
		start := time.Now()

		var resp EmbedResponse
		err := withRetry(ctx, p.cfg.Retry, p.stats, func() error {
			var callErr error
			resp, callErr = d.provider.Embed(ctx, req)
			return callErr
		})

		if err == nil {
			d.breaker.RecordSuccess()
			d.stats.RecordSuccess(time.Since(start))
			p.stats.RecordSuccess(time.Since(start))
			return resp, nil
		}

		d.breaker.RecordFailure()
		d.stats.RecordFailure()
		p.stats.RecordFailure()
		if d.breaker.State() == resource.CircuitOpen {
			p.stats.RecordCircuitTrip()
		}
		lastErr = err
	}
	return EmbedResponse{}, lastErr
}
