package httpapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/webforge/crawlkit/internal/frontier"
	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/spider"
)

// job tracks one background spider run, per spec's `/spider/status` and
// `/spider/control` operations acting on a previously started job.
type job struct {
	id     string
	spider *spider.Spider
	cancel context.CancelFunc

	mu     sync.Mutex
	done   bool
	stats  models.TaskStats
	reason spider.StopReason
	err    error
}

// jobRegistry is the in-memory equivalent of the CLI's job bookkeeping
// (cmd/crawlkit/crawl.go's job-id-keyed report lookup), generalized to hold the live
// *spider.Spider so status/control can reach a running crawl rather than
// only a finished one's saved report.
type jobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*job
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*job)}
}

func (r *jobRegistry) start(id string, s *spider.Spider) *job {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{id: id, spider: s, cancel: cancel}

	r.mu.Lock()
	r.jobs[id] = j
	r.mu.Unlock()

	go func() {
		stats, reason, err := s.Run(ctx)
		j.mu.Lock()
		j.done = true
		j.stats = stats
		j.reason = reason
		j.err = err
		j.mu.Unlock()
	}()

	return j
}

func (r *jobRegistry) get(id string) (*job, error) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("job %q not found", id)
	}
	return j, nil
}

// frontierFor returns a fresh per-job frontier; jobs never share one
// (spec §4.6: a frontier is scoped to a single spider run).
func frontierFor() *frontier.Frontier {
	return frontier.New(frontier.DefaultConfig(), nil)
}
