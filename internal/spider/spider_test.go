package spider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge/crawlkit/internal/frontier"
	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/pipeline"
)

func newTestFrontier(t *testing.T) *frontier.Frontier {
	t.Helper()
	return frontier.New(frontier.DefaultConfig(), nil)
}

func newTestPipeline() *pipeline.Pipeline {
	cache := pipeline.NewCache(100, time.Minute, false)
	fetcher := pipeline.NewFetcher(pipeline.FetcherConfig{Timeout: 5 * time.Second})
	extractor := pipeline.NewExtractor(nil)
	return pipeline.New(pipeline.Config{GateHiThreshold: 0.8, GateLoThreshold: 0.2, ExtractionMode: "default"}, cache, fetcher, extractor, nil)
}

func linkedSiteServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Root page with enough article text to pass the gate threshold for extraction quality scoring purposes here.</p><a href="/child">child</a></body></html>`)
	})
	mux.HandleFunc("/child", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Child page also has enough article text to pass the gate threshold for extraction quality scoring purposes here.</p></body></html>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	return httptest.NewServer(mux)
}

func TestSpiderRunCrawlsSeedAndDiscoveredLinks(t *testing.T) {
	srv := linkedSiteServer(t)
	defer srv.Close()

	fr := newTestFrontier(t)
	pl := newTestPipeline()
	robots := NewRobotsCache(srv.Client(), "crawlkit-test")

	opts := DefaultOptions()
	opts.SeedURLs = []string{srv.URL + "/"}
	opts.MaxPages = 10
	opts.Concurrency = 2

	s := New("job-1", opts, fr, pl, nil, robots, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, reason, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopFrontierDrained, reason)
	assert.GreaterOrEqual(t, stats.PagesCrawled, 1)
}

func TestSpiderStopHaltsRunEarly(t *testing.T) {
	srv := linkedSiteServer(t)
	defer srv.Close()

	fr := newTestFrontier(t)
	pl := newTestPipeline()

	opts := DefaultOptions()
	opts.SeedURLs = []string{srv.URL + "/", srv.URL + "/child"}
	opts.RespectRobots = false
	opts.Concurrency = 1

	s := New("job-2", opts, fr, pl, nil, nil, nil)
	s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, reason, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopExternal, reason)
}

func TestSpiderMaxPagesStopsAtLimit(t *testing.T) {
	srv := linkedSiteServer(t)
	defer srv.Close()

	fr := newTestFrontier(t)
	pl := newTestPipeline()

	opts := DefaultOptions()
	opts.SeedURLs = []string{srv.URL + "/"}
	opts.RespectRobots = false
	opts.MaxPages = 1
	opts.Concurrency = 1

	s := New("job-3", opts, fr, pl, nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, _, err := s.Run(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.PagesCrawled, 2) // one in flight may already be processing when the limit trips
}

func TestSpiderStatusReportsFrontierMetrics(t *testing.T) {
	fr := newTestFrontier(t)
	pl := newTestPipeline()
	opts := DefaultOptions()
	s := New("job-4", opts, fr, pl, nil, nil, nil)
	require.NoError(t, fr.Enqueue(models.CrawlRequest{URL: "https://example.com/", Priority: models.PriorityHigh}))

	status := s.Status(true)
	assert.Equal(t, "job-4", status.JobID)
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.FrontierMetrics.Total)
}

func TestSpiderResetClearsVisitedAndStats(t *testing.T) {
	fr := newTestFrontier(t)
	pl := newTestPipeline()
	opts := DefaultOptions()
	s := New("job-5", opts, fr, pl, nil, nil, nil)

	s.visited["http://example.com/"] = true
	s.stats.PagesCrawled = 5
	s.resetLocked()

	assert.Empty(t, s.visited)
	assert.Equal(t, 0, s.stats.PagesCrawled)
}

func TestSpiderOnResultFiresForEachProcessedURL(t *testing.T) {
	srv := linkedSiteServer(t)
	defer srv.Close()

	fr := newTestFrontier(t)
	pl := newTestPipeline()

	var mu sync.Mutex
	seen := make(map[string]bool)

	opts := DefaultOptions()
	opts.SeedURLs = []string{srv.URL + "/"}
	opts.RespectRobots = false
	opts.Concurrency = 1
	opts.OnResult = func(req models.CrawlRequest, result models.PipelineResult) {
		mu.Lock()
		seen[result.URL] = true
		mu.Unlock()
	}

	s := New("job-6", opts, fr, pl, nil, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := s.Run(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen[srv.URL+"/"])
}

func TestHostOfRejectsURLWithoutHost(t *testing.T) {
	_, err := hostOf("/relative/path")
	assert.Error(t, err)
}

func TestHostOfReturnsAuthority(t *testing.T) {
	host, err := hostOf("https://example.com/path")
	require.NoError(t, err)
	assert.Equal(t, "example.com", host)
}

