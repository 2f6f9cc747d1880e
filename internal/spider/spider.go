// Package spider drives the frontier (C7) against the pipeline (C6),
// applying robots policy, query-aware scoring (C8) and stop conditions,
// generalized from the teacher's internal/core.Crawler composition-root
// style (owns sub-crawlers, coordinates via a shared mutex, exposes
// GetStats) into a frontier-driven crawl loop.
package spider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/webforge/crawlkit/internal/frontier"
	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
	"github.com/webforge/crawlkit/internal/pipeline"
	"github.com/webforge/crawlkit/internal/scorer"
)

// StopReason explains why a run ended.
type StopReason string

const (
	StopNone          StopReason = ""
	StopMaxPages      StopReason = "max_pages"
	StopMaxDepth      StopReason = "max_depth_exhausted"
	StopMaxTime       StopReason = "max_time"
	StopEarlyRelevance StopReason = "early_stop_relevance"
	StopExternal      StopReason = "external_stop"
	StopFrontierDrained StopReason = "frontier_drained"
)

// Status is returned by the `status` control operation.
type Status struct {
	JobID          string
	Running        bool
	StopReason     StopReason
	Stats          models.TaskStats
	FrontierMetrics frontier.Metrics
	HostCount      int
}

// Spider is the C9 orchestrator: frontier + pipeline + optional scorer +
// robots policy + host-state bookkeeping + control operations.
type Spider struct {
	jobID    string
	cfg      Options
	frontier *frontier.Frontier
	pipeline *pipeline.Pipeline
	scorer   *scorer.Scorer
	robots   *RobotsCache
	headers  http.Header

	mu         sync.Mutex
	hostStates map[string]*models.HostState
	visited    map[string]bool
	stats      models.TaskStats
	seedHosts  map[string]bool

	stopRequested int32
	resetRequested int32
	stopReason    StopReason
	startedAt     time.Time
	running       bool
}

// New builds a Spider. robots and scr may be nil (robots policy /
// query-aware scoring are both opt-in per spec).
func New(jobID string, cfg Options, fr *frontier.Frontier, pl *pipeline.Pipeline, scr *scorer.Scorer, robots *RobotsCache, headers http.Header) *Spider {
	return &Spider{
		jobID:      jobID,
		cfg:        cfg,
		frontier:   fr,
		pipeline:   pl,
		scorer:     scr,
		robots:     robots,
		headers:    headers,
		hostStates: make(map[string]*models.HostState),
		visited:    make(map[string]bool),
		seedHosts:  make(map[string]bool),
	}
}

// Run seeds the frontier from cfg.SeedURLs and drives it to completion
// or a stop condition, fanning work out across cfg.Concurrency workers.
func (s *Spider) Run(ctx context.Context) (models.TaskStats, StopReason, error) {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for _, seed := range s.cfg.SeedURLs {
		if err := models.ValidateURL(seed); err != nil {
			obslog.Warnf("spider %s: skipping invalid seed %s: %v", s.jobID, seed, err)
			continue
		}
		if host, err := hostOf(seed); err == nil {
			s.seedHosts[host] = true
		}
		if err := s.frontier.Enqueue(models.CrawlRequest{URL: models.NormalizeURL(seed), Priority: models.PriorityHigh, Depth: 0}); err != nil {
			return s.snapshotStats(), StopNone, fmt.Errorf("seeding frontier: %w", err)
		}
	}

	concurrency := s.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	var active int32
	done := make(chan struct{})

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, &active, done)
		}()
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	<-done
	if s.stopReason == StopNone {
		s.stopReason = StopFrontierDrained
	}
	return s.snapshotStats(), s.stopReason, ctx.Err()
}

func (s *Spider) worker(ctx context.Context, active *int32, done chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			s.setStopReason(StopExternal)
			return
		case <-done:
			return
		default:
		}

		if reason := s.checkStopConditions(); reason != StopNone {
			s.setStopReason(reason)
			return
		}

		req, ok := s.frontier.Dequeue()
		if !ok {
			if atomic.LoadInt32(active) == 0 {
				return // frontier empty and nobody else is working: done
			}
			time.Sleep(20 * time.Millisecond)
			continue
		}

		atomic.AddInt32(active, 1)
		s.processOne(ctx, req)
		atomic.AddInt32(active, -1)

		if s.cfg.DelayBetween > 0 {
			time.Sleep(s.cfg.DelayBetween)
		}

		if atomic.LoadInt32(&s.resetRequested) == 1 {
			atomic.StoreInt32(&s.resetRequested, 0)
			s.resetLocked()
		}
	}
}

func (s *Spider) processOne(ctx context.Context, req models.CrawlRequest) {
	host, err := req.Host()
	if err != nil {
		return
	}

	s.mu.Lock()
	if s.visited[req.URL] {
		s.mu.Unlock()
		return
	}
	s.visited[req.URL] = true
	s.mu.Unlock()

	if s.cfg.RespectRobots && s.robots != nil {
		allowed, err := s.robots.Allowed(req.URL)
		if err == nil && !allowed {
			obslog.Debugf("spider %s: robots disallow %s", s.jobID, req.URL)
			return
		}
		if delay := s.robots.CrawlDelay(req.URL); delay > 0 {
			time.Sleep(delay)
		}
	}

	result, err := s.pipeline.Run(ctx, models.CrawlRequest{URL: req.URL, Depth: req.Depth}, s.headers)

	s.recordHostOutcome(host, err == nil)
	s.mu.Lock()
	s.stats.PagesCrawled++
	if err != nil {
		s.stats.PagesFailed++
	} else {
		s.stats.BytesFetched += int64(len(result.Document.Text))
	}
	s.stats.UniqueHosts = len(s.hostStates)
	s.mu.Unlock()

	if err != nil {
		return
	}

	if s.cfg.OnResult != nil {
		s.cfg.OnResult(req, result)
	}

	if s.scorer != nil {
		s.scorer.UpdateWithResult(host, result.Document.Text)
		if signal := s.scorer.CheckEarlyStop(); signal.Stop {
			obslog.Infof("spider %s: early stop triggered: %s", s.jobID, signal.Reason)
			s.setStopReason(StopEarlyRelevance)
		}
	}

	if req.Depth+1 > s.cfg.MaxDepth {
		return
	}
	for _, link := range result.Document.Links {
		if link.NoFollow {
			continue
		}
		s.enqueueDiscovered(link.URL, req.Depth+1, host)
	}
}

func (s *Spider) enqueueDiscovered(rawURL string, depth int, parentHost string) {
	normalized := models.NormalizeURL(rawURL)
	linkHost, err := (&models.CrawlRequest{URL: normalized}).Host()
	if err != nil {
		return
	}
	if !s.cfg.FollowRedirects && linkHost != parentHost {
		return
	}

	s.mu.Lock()
	if s.visited[normalized] {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	next := models.CrawlRequest{URL: normalized, Depth: depth, ParentURL: rawURL, Priority: models.PriorityMedium}
	if s.scorer != nil {
		score := s.scorer.ScoreRequest(normalized, depth, linkHost, "")
		scorer.ApplyScore(&next, score)
	}
	if err := s.frontier.Enqueue(next); err != nil {
		obslog.Warnf("spider %s: failed to enqueue discovered link %s: %v", s.jobID, normalized, err)
	}
}

func (s *Spider) recordHostOutcome(host string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.hostStates[host]
	if !ok {
		hs = &models.HostState{Host: host}
		s.hostStates[host] = hs
	}
	hs.RecordOutcome(success)
}

func (s *Spider) checkStopConditions() StopReason {
	if atomic.LoadInt32(&s.stopRequested) == 1 {
		return StopExternal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxPages > 0 && s.stats.PagesCrawled >= s.cfg.MaxPages {
		return StopMaxPages
	}
	if s.cfg.MaxTime > 0 && time.Since(s.startedAt) >= s.cfg.MaxTime {
		return StopMaxTime
	}
	return StopNone
}

func (s *Spider) setStopReason(reason StopReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopReason == StopNone {
		s.stopReason = reason
	}
}

// Stop requests the current run halt at the next worker iteration.
func (s *Spider) Stop() {
	atomic.StoreInt32(&s.stopRequested, 1)
}

// Reset clears visited/host-state bookkeeping so a new run can start
// clean while reusing the same Spider (and frontier/pipeline wiring).
func (s *Spider) Reset() {
	atomic.StoreInt32(&s.resetRequested, 1)
}

func (s *Spider) resetLocked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = make(map[string]bool)
	s.hostStates = make(map[string]*models.HostState)
	s.stats = models.TaskStats{}
	s.stopReason = StopNone
	atomic.StoreInt32(&s.stopRequested, 0)
}

// Status reports frontier/stats snapshots for the `status` control
// operation.
func (s *Spider) Status(includeMetrics bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		JobID:      s.jobID,
		Running:    s.running,
		StopReason: s.stopReason,
		Stats:      s.stats,
		HostCount:  len(s.hostStates),
	}
	if includeMetrics && s.frontier != nil {
		st.FrontierMetrics = s.frontier.Metrics()
	}
	return st
}

func (s *Spider) snapshotStats() models.TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host: %s", rawURL)
	}
	return u.Host, nil
}
