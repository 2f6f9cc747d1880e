package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/webforge/crawlkit/internal/llm"
	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
	"github.com/webforge/crawlkit/internal/resource"
)

// Config bounds pipeline behavior, mirroring config.PipelineConfig.
type Config struct {
	GateHiThreshold float64
	GateLoThreshold float64
	CacheMode       string // "normal" | "bypass"
	ExtractionMode  string // cache-key discriminator: "default", "trek", etc.

	// Strategy selects the extraction strategy every Run/RunHeadless call
	// uses, per spec §9's compile-time-registration redesign note: the
	// strategy is resolved once from config, not hardcoded per call. The
	// zero value (Kind == "") falls back to StrategyCSS.
	Strategy ExtractionStrategy
}

// resolvedStrategy returns cfg.Strategy, defaulting Kind to StrategyCSS
// when the config left it unset.
func (cfg Config) resolvedStrategy() ExtractionStrategy {
	if cfg.Strategy.Kind == "" {
		cfg.Strategy.Kind = StrategyCSS
	}
	return cfg.Strategy
}

// Pipeline implements spec §4.5's per-URL flow: cache lookup → acquire
// → fetch → gate decision → extract → score → store.
type Pipeline struct {
	cfg       Config
	cache     *Cache
	fetcher   *Fetcher
	extractor *Extractor
	resources *resource.Manager
	llmPool   *llm.Pool // optional; only needed when cfg.Strategy.Kind == StrategyLLM
}

func New(cfg Config, cache *Cache, fetcher *Fetcher, extractor *Extractor, resources *resource.Manager) *Pipeline {
	return &Pipeline{cfg: cfg, cache: cache, fetcher: fetcher, extractor: extractor, resources: resources}
}

// WithLLMPool attaches the C11 client pool StrategyLLM dispatches through.
// Returns p for chaining at construction time.
func (p *Pipeline) WithLLMPool(pool *llm.Pool) *Pipeline {
	p.llmPool = pool
	return p
}

// extract runs the configured strategy, routing StrategyLLM through the
// attached llm.Pool instead of the Extractor (which has no provider to
// call and would otherwise error per its own StrategyLLM case).
func (p *Pipeline) extract(ctx context.Context, strategy ExtractionStrategy, html, pageURL string) (*models.ExtractedDoc, error) {
	if strategy.Kind == StrategyLLM {
		if p.llmPool == nil {
			return nil, models.NewError(models.ErrExtraction, "StrategyLLM configured but no llm.Pool attached; call Pipeline.WithLLMPool", nil)
		}
		return ExtractWithLLM(ctx, p.llmPool, strategy, html, pageURL)
	}
	return p.extractor.Extract(strategy, html, pageURL)
}

// Run executes the full per-URL flow for a single request.
func (p *Pipeline) Run(ctx context.Context, req models.CrawlRequest, headers http.Header) (models.PipelineResult, error) {
	start := time.Now()

	key := Key(req.URL, p.cfg.ExtractionMode)
	if result, ok := p.cache.Get(key); ok {
		obslog.Debugf("pipeline cache hit for %s", req.URL)
		return result, nil
	}

	host, hostErr := req.Host()
	if hostErr != nil {
		return models.PipelineResult{}, models.NewError(models.ErrInvalidURL, "cannot extract host", hostErr)
	}
	if p.resources != nil && p.resources.RateLimiter != nil {
		if ok, retryAfter := p.resources.RateLimiter.CheckRateLimit(host); !ok {
			return models.PipelineResult{}, models.RateLimitedError(retryAfter)
		}
	}

	fetchResult, err := p.fetcher.Fetch(ctx, req.URL, headers)
	if p.resources != nil && p.resources.RateLimiter != nil {
		p.resources.RateLimiter.RecordResult(host, err == nil, isRateLimitStatus(fetchResult))
	}
	if err != nil {
		return models.PipelineResult{}, err
	}

	score := Score(fetchResult.Body)
	decision := Decide(score, p.cfg.GateHiThreshold, p.cfg.GateLoThreshold)

	strategy := p.cfg.resolvedStrategy()
	doc, extractErr := p.extract(ctx, strategy, fetchResult.Body, req.URL)

	if decision == models.GateProbesFirst && (extractErr != nil || NeedsHeadlessFallback(len(doc.Text))) {
		obslog.Debugf("pipeline: probes_first fell back to headless for %s", req.URL)
		decision = models.GateHeadless
		// Headless rendering is driven by the caller (spider/CLI) via
		// resource.Manager.AcquireRenderResources + a Renderer; the
		// pipeline itself never imports go-rod so it stays testable
		// without a browser. Callers that want the headless path
		// re-invoke RunHeadless with a rendered HTML string.
	}

	if extractErr != nil {
		return models.PipelineResult{}, extractErr
	}

	quality := QualityScore(doc)
	doc.QualityScore = quality

	result := models.PipelineResult{
		URL:            req.URL,
		StatusCode:     fetchResult.StatusCode,
		GateDecision:   decision,
		QualityScore:   quality,
		ProcessingTime: time.Since(start),
		CacheKey:       key,
		Document:       doc,
		FromCache:      false,
	}

	if p.cfg.CacheMode != "bypass" {
		p.cache.Store(key, result)
	}

	return result, nil
}

func isRateLimitStatus(f *FetchResult) bool {
	return f != nil && (f.StatusCode == 429 || f.StatusCode == 503)
}

// RunHeadless re-enters the pipeline after a caller has already
// rendered HTML via the browser pool (C3), continuing from gate
// decision `headless` through extract/score/store.
func (p *Pipeline) RunHeadless(ctx context.Context, req models.CrawlRequest, renderedHTML string, statusCode int) (models.PipelineResult, error) {
	start := time.Now()
	key := Key(req.URL, p.cfg.ExtractionMode)

	strategy := p.cfg.resolvedStrategy()
	doc, err := p.extract(ctx, strategy, renderedHTML, req.URL)
	if err != nil {
		return models.PipelineResult{}, err
	}

	quality := QualityScore(doc)
	doc.QualityScore = quality

	result := models.PipelineResult{
		URL:            req.URL,
		StatusCode:     statusCode,
		GateDecision:   models.GateHeadless,
		QualityScore:   quality,
		ProcessingTime: time.Since(start),
		CacheKey:       key,
		Document:       doc,
		FromCache:      false,
	}

	if p.cfg.CacheMode != "bypass" {
		p.cache.Store(key, result)
	}
	return result, nil
}
