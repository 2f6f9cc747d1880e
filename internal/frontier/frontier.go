package frontier

import (
	"sync"
	"time"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
)

// hostQueue tracks a bounded per-host fairness queue, used for
// fairness decisions rather than as the primary store (spec §4.6).
type hostQueue struct {
	items      []models.CrawlRequest
	lastAccess time.Time
}

// Config bounds frontier behavior per spec §4.6.
type Config struct {
	MemoryCap          int // switch to disk spillover above this in-memory count
	MaxRequestsPerHost  int
	MaxRequestAge       time.Duration
	CleanupInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MemoryCap:          10000,
		MaxRequestsPerHost: 200,
		MaxRequestAge:      30 * time.Minute,
		CleanupInterval:    5 * time.Minute,
	}
}

// Frontier is the priority + best-first + per-host queue structure.
// Dequeue consults the best-first heap, then high -> medium -> low FIFO;
// it does not read the disk spillover, whose requests return to the
// in-memory tiers only through DrainSpillover. Generalized from the teacher's
// single-tier channel queue (internal/crawlers/url_queue.go) into four
// structures plus host fairness tracking.
type Frontier struct {
	mu sync.Mutex

	cfg Config

	bestFirst *BestFirstQueue
	high      *priorityFIFO
	medium    *priorityFIFO
	low       *priorityFIFO
	spillover *SpilloverQueue

	hosts map[string]*hostQueue

	total int
}

func New(cfg Config, spillover *SpilloverQueue) *Frontier {
	return &Frontier{
		cfg:       cfg,
		bestFirst: NewBestFirstQueue(),
		high:      newPriorityFIFO(),
		medium:    newPriorityFIFO(),
		low:       newPriorityFIFO(),
		spillover: spillover,
		hosts:     make(map[string]*hostQueue),
	}
}

// Enqueue adds req to the heap if it carries a score, else to its
// priority tier. When the in-memory count exceeds MemoryCap, the
// request is written to the disk spillover queue instead.
func (f *Frontier) Enqueue(req models.CrawlRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enqueueLocked(req, true)
}

func (f *Frontier) enqueueLocked(req models.CrawlRequest, allowSpill bool) error {
	if allowSpill && f.total >= f.cfg.MemoryCap && f.spillover != nil {
		if err := f.spillover.Push(req); err != nil {
			return err
		}
		obslog.Debugf("frontier: memory cap reached (%d), spilling %s to disk", f.cfg.MemoryCap, req.URL)
		return nil
	}

	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}

	if req.Score != nil {
		f.bestFirst.Push(req, *req.Score)
	} else {
		switch req.Priority {
		case models.PriorityCritical, models.PriorityHigh:
			f.high.push(req)
		case models.PriorityMedium:
			f.medium.push(req)
		default:
			f.low.push(req)
		}
	}
	f.total++
	f.trackHostLocked(req)
	return nil
}

// Dequeue pops the next request per the deterministic ordering rule:
// heap first, then high -> medium -> low FIFO, preserving insertion
// order within a tier.
func (f *Frontier) Dequeue() (models.CrawlRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req, ok := f.bestFirst.Pop(); ok {
		f.total--
		return req, true
	}
	if req, ok := f.high.pop(); ok {
		f.total--
		return req, true
	}
	if req, ok := f.medium.pop(); ok {
		f.total--
		return req, true
	}
	if req, ok := f.low.pop(); ok {
		f.total--
		return req, true
	}
	return models.CrawlRequest{}, false
}

// DequeueForHost pulls the next request enqueued for a specific host's
// fairness queue, used by worker-pull patterns that want to balance
// across hosts rather than drain strict priority order.
func (f *Frontier) DequeueForHost(host string) (models.CrawlRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hq, ok := f.hosts[host]
	if !ok || len(hq.items) == 0 {
		return models.CrawlRequest{}, false
	}
	req := hq.items[0]
	hq.items = hq.items[1:]
	hq.lastAccess = time.Now()
	return req, true
}

func (f *Frontier) trackHostLocked(req models.CrawlRequest) {
	host, err := req.Host()
	if err != nil {
		return
	}
	hq, ok := f.hosts[host]
	if !ok {
		hq = &hostQueue{}
		f.hosts[host] = hq
	}
	if len(hq.items) >= f.cfg.MaxRequestsPerHost {
		return // fairness cap reached; request still lives in its primary tier
	}
	hq.items = append(hq.items, req)
	hq.lastAccess = insertedAt(req)
}

// Cleanup removes host queues idle beyond MaxRequestAge, intended to
// run every CleanupInterval.
func (f *Frontier) Cleanup() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	now := time.Now()
	for host, hq := range f.hosts {
		if len(hq.items) == 0 && now.Sub(hq.lastAccess) > f.cfg.MaxRequestAge {
			delete(f.hosts, host)
			removed++
		}
	}
	return removed
}

// DrainSpillover replays every disk-spilled request back into the
// in-memory tiers, in FIFO order, intended for startup/resume. Replayed
// requests stay in memory even past MemoryCap.
func (f *Frontier) DrainSpillover() (int, error) {
	if f.spillover == nil {
		return 0, nil
	}
	reqs, err := f.spillover.LoadAll()
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range reqs {
		if err := f.enqueueLocked(req, false); err != nil {
			return 0, err
		}
	}
	return len(reqs), nil
}

// Metrics reports the counters spec §4.6 calls for.
type Metrics struct {
	Total         int
	HighCount     int
	MediumCount   int
	LowCount      int
	BestFirstCount int
	HostCount     int
}

func (f *Frontier) Metrics() Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Metrics{
		Total:          f.total,
		HighCount:      f.high.len(),
		MediumCount:    f.medium.len(),
		LowCount:       f.low.len(),
		BestFirstCount: f.bestFirst.Len(),
		HostCount:      len(f.hosts),
	}
}
