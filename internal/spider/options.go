package spider

import (
	"time"

	"github.com/webforge/crawlkit/internal/models"
)

// Strategy picks how the frontier orders work, per spec §6's
// `spider.strategy` setting.
type Strategy string

const (
	StrategyBreadthFirst Strategy = "breadth_first"
	StrategyDepthFirst   Strategy = "depth_first"
	StrategyBestFirst    Strategy = "best_first"
)

// Options bounds one spider run, mirroring spec §4.8's stop conditions
// and the `POST /spider/crawl` request body.
type Options struct {
	SeedURLs        []string
	Strategy        Strategy
	MaxDepth        int
	MaxPages        int
	MaxTime         time.Duration
	RespectRobots   bool
	FollowRedirects bool
	Concurrency     int
	DelayBetween    time.Duration

	// OnResult, when set, is invoked once per successfully processed URL
	// with the request that produced it and the pipeline's result. The
	// spider itself keeps no per-URL history (only aggregate TaskStats),
	// so callers that need individual results — the search CLI command
	// ranking pages by relevance, for instance — collect them here
	// instead of reaching into pipeline cache internals. Called from
	// worker goroutines; implementations must be safe for concurrent use.
	OnResult func(req models.CrawlRequest, result models.PipelineResult)
}

func DefaultOptions() Options {
	return Options{
		Strategy:        StrategyBestFirst,
		MaxDepth:        3,
		MaxPages:        1000,
		MaxTime:         0, // unbounded
		RespectRobots:   true,
		FollowRedirects: true,
		Concurrency:     4,
	}
}
