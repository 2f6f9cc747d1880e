package main

import (
	"net/http"
	"time"

	"github.com/webforge/crawlkit/internal/config"
	"github.com/webforge/crawlkit/internal/pipeline"
	"github.com/webforge/crawlkit/internal/resource"
)

// runtime bundles the shared components every subcommand wires a request
// or a spider run through, built once from the loaded Config. It mirrors
// the teacher's pattern of assembling Crawler dependencies in main before
// handing off to a command, but composed from crawlkit's own C1-C6
// packages instead of the teacher's single Crawler struct.
type runtime struct {
	cfg       *config.Config
	resources *resource.Manager
	pipeline  *pipeline.Pipeline
	headers   http.Header
}

// newRuntime builds the shared pipeline/resource wiring. The browser pool
// is intentionally left nil: every CLI command here drives the static
// fetch → gate → extract path, and Pipeline.Run already treats a
// headless-fallback decision as the caller's responsibility (see
// pipeline.go's GateHeadless branch comment) rather than the pipeline's.
func newRuntime(cfg *config.Config) *runtime {
	resources := &resource.Manager{
		RateLimiter: resource.NewRateLimiter(resource.RateLimiterConfig{
			BaseRatePerSecond: cfg.RateLimit.RequestsPerSecondPerHost,
			BurstSize:         cfg.RateLimit.BurstSize,
			MinDelay:          50 * time.Millisecond,
			MaxDelay:          30 * time.Second,
			BackoffFactor:     2.0,
			MaxBackoffMult:    8.0,
			IdleTTL:           10 * time.Minute,
		}),
		Memory: resource.NewMemoryManager(resource.MemoryManagerConfig{
			GlobalMemoryLimitMB: cfg.Memory.GlobalMemoryLimitMB,
			PressureThreshold:   cfg.Memory.PressureThreshold,
			GCThreshold:         cfg.Memory.GCThreshold,
		}),
		PDF: resource.NewPDFSemaphore(cfg.PDF.MaxConcurrent),
	}

	cache := pipeline.NewCache(10000, time.Duration(cfg.Pipeline.CacheTTLSeconds)*time.Second, cfg.Pipeline.CacheMode == "bypass")
	fetcher := pipeline.NewFetcher(pipeline.FetcherConfig{Timeout: 30 * time.Second})
	extractor := pipeline.NewExtractor(nil)

	pl := pipeline.New(pipeline.Config{
		GateHiThreshold: cfg.Pipeline.GateHiThreshold,
		GateLoThreshold: cfg.Pipeline.GateLoThreshold,
		CacheMode:       cfg.Pipeline.CacheMode,
		ExtractionMode:  "default",
		Strategy:        pipeline.ExtractionStrategy{Kind: pipeline.StrategyCSS},
	}, cache, fetcher, extractor, resources)

	return &runtime{
		cfg:       cfg,
		resources: resources,
		pipeline:  pl,
		headers:   defaultHeaders(),
	}
}

func defaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", "crawlkit/"+Version)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return h
}
