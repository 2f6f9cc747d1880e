package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
	"github.com/webforge/crawlkit/internal/scorer"
	"github.com/webforge/crawlkit/internal/spider"
	"github.com/webforge/crawlkit/internal/streaming"
)

type crawlRequestBody struct {
	URLs []string `json:"urls"`
}

type crawlResultItem struct {
	URL          string  `json:"url"`
	Successful   bool    `json:"successful"`
	StatusCode   int     `json:"status_code,omitempty"`
	QualityScore float64 `json:"quality_score,omitempty"`
	Title        string  `json:"title,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// handleCrawl implements `POST /crawl`: body `{ urls, options? }` -> `{
// total_urls, results }` per spec's HTTP API shape. A single URL's failure
// never aborts the batch (spec §7 propagation rule); each item carries its
// own status instead.
//
// `?stream=ndjson` switches the same request to streaming.RunBatch over an
// NDJSONWriter, one JSON line per result in `result_index` order, so the
// batch endpoint can exercise the streaming core (C10) for callers that
// want progress as it happens instead of a single buffered response.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var body crawlRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(body.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "urls must be non-empty")
		return
	}

	process := func(ctx context.Context, rawURL string) (interface{}, error) {
		return s.extractOne(ctx, rawURL)
	}

	if r.URL.Query().Get("stream") == "ndjson" {
		s.streamBatch(w, r, body.URLs, process)
		return
	}

	results := make([]crawlResultItem, len(body.URLs))
	successful := 0
	for i, u := range body.URLs {
		item, err := s.extractOne(r.Context(), u)
		if err != nil {
			results[i] = crawlResultItem{URL: u, Successful: false, Error: err.Error()}
			continue
		}
		results[i] = *item
		successful++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_urls": len(body.URLs),
		"successful": successful,
		"failed":     len(body.URLs) - successful,
		"results":    results,
	})
}

func (s *Server) extractOne(ctx context.Context, rawURL string) (*crawlResultItem, error) {
	req := models.CrawlRequest{URL: models.NormalizeURL(rawURL)}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	result, err := s.rt.Pipeline.Run(ctx, req, s.rt.Headers)
	if err != nil {
		return nil, err
	}
	item := &crawlResultItem{
		URL:          result.URL,
		Successful:   true,
		StatusCode:   result.StatusCode,
		QualityScore: result.QualityScore,
	}
	if result.Document != nil {
		item.Title = result.Document.Title
	}
	return item, nil
}

// streamBatch drains streaming.RunBatch over an NDJSONWriter, reusing the
// same extractOne unit of work the buffered path uses.
func (s *Server) streamBatch(w http.ResponseWriter, r *http.Request, urls []string, process streaming.ProcessFunc) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	stream := streaming.NewStream(streaming.DefaultConfig())
	writer := streaming.NewNDJSONWriter(w, stream)

	done := make(chan error, 1)
	go func() {
		done <- writer.Run(r.Context())
	}()

	batchErr := streaming.RunBatch(r.Context(), stream, urls, streaming.BatchConfig{
		Concurrency:   s.cfg.BatchConcurrency,
		PreserveOrder: true,
	}, process)
	stream.Close()
	<-done

	if batchErr != nil {
		obslog.Warnf("streaming batch ended early: %v", batchErr)
	}
}

type extractRequestBody struct {
	URL string `json:"url"`
}

// handleExtract implements `POST /api/v1/extract`. Unlike the CLI's
// `extract --strategy`, which cheaply builds a one-off pipeline.Pipeline
// per invocation, the server keeps one pipeline warm across requests, so
// the extraction strategy here is whatever the server was started with
// (config's pipeline.* settings) rather than a per-request choice — a
// per-request override would need to thread a new ExtractionStrategy
// through every Run call instead of reusing the shared Pipeline.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var body extractRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	item, err := s.extractOne(r.Context(), body.URL)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "extraction_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type spiderCrawlRequestBody struct {
	SeedURLs        []string `json:"seed_urls"`
	MaxDepth        int      `json:"max_depth"`
	MaxPages        int      `json:"max_pages"`
	Strategy        string   `json:"strategy"`
	TimeoutSeconds  int      `json:"timeout_seconds"`
	DelayMs         int      `json:"delay_ms"`
	Concurrency     int      `json:"concurrency"`
	RespectRobots   *bool    `json:"respect_robots"`
	FollowRedirects *bool    `json:"follow_redirects"`
}

// handleSpiderCrawl implements `POST /spider/crawl`: starts a spider job in
// the background and returns its job id plus an initial status snapshot,
// so `/spider/status` and `/spider/control` have something live to act on
// for crawls that outlive a single request/response cycle.
func (s *Server) handleSpiderCrawl(w http.ResponseWriter, r *http.Request) {
	var body spiderCrawlRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(body.SeedURLs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "seed_urls must be non-empty")
		return
	}

	opts := spider.DefaultOptions()
	opts.SeedURLs = body.SeedURLs
	if body.MaxDepth > 0 {
		opts.MaxDepth = body.MaxDepth
	}
	if body.MaxPages > 0 {
		opts.MaxPages = body.MaxPages
	}
	if body.Concurrency > 0 {
		opts.Concurrency = body.Concurrency
	}
	if body.TimeoutSeconds > 0 {
		opts.MaxTime = time.Duration(body.TimeoutSeconds) * time.Second
	}
	if body.DelayMs > 0 {
		opts.DelayBetween = time.Duration(body.DelayMs) * time.Millisecond
	}
	if body.RespectRobots != nil {
		opts.RespectRobots = *body.RespectRobots
	}
	if body.FollowRedirects != nil {
		opts.FollowRedirects = *body.FollowRedirects
	}
	switch spider.Strategy(body.Strategy) {
	case spider.StrategyBreadthFirst, spider.StrategyDepthFirst, spider.StrategyBestFirst:
		opts.Strategy = spider.Strategy(body.Strategy)
	}

	fr := frontierFor()
	scr := scorer.New(scorer.DefaultConfig())
	robots := spider.NewRobotsCache(&http.Client{Timeout: 10 * time.Second}, s.rt.Headers.Get("User-Agent"))

	jobID := uuid.NewString()
	sp := spider.New(jobID, opts, fr, s.rt.Pipeline, scr, robots, s.rt.Headers)
	s.jobs.start(jobID, sp)

	status := sp.Status(true)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":      jobID,
		"state":       status,
		"performance": status.FrontierMetrics,
	})
}

type jobActionBody struct {
	JobID          string `json:"job_id"`
	Action         string `json:"action"`
	IncludeMetrics bool   `json:"include_metrics"`
}

// handleSpiderStatus implements `POST /spider/status`.
func (s *Server) handleSpiderStatus(w http.ResponseWriter, r *http.Request) {
	var body jobActionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	j, err := s.jobs.get(body.JobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	status := j.spider.Status(body.IncludeMetrics)
	resp := map[string]interface{}{"state": status}
	if body.IncludeMetrics {
		resp["frontier_stats"] = status.FrontierMetrics
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSpiderControl implements `POST /spider/control`: body `{ action:
// "stop" | "reset", job_id }`.
func (s *Server) handleSpiderControl(w http.ResponseWriter, r *http.Request) {
	var body jobActionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	j, err := s.jobs.get(body.JobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	switch body.Action {
	case "stop":
		j.spider.Stop()
		j.cancel()
	case "reset":
		j.spider.Reset()
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "action must be stop|reset")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealthz implements `GET /healthz`: bare liveness, no component
// detail — the process is up and able to answer.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealthDetailed implements `GET /api/health/detailed`, reusing the
// same component checks the CLI's `health` command reports.
func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CheckHealth(s.rt.Resources, s.rt.GCThreshold))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{"error_type": errType, "message": message})
}
