package llm

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks the per-pool counters spec'd in §4.10: total, successful,
// failed, average duration, semaphore wait time, circuit trips, failover
// count, retry count.
type Stats struct {
	total       int64
	successful  int64
	failed      int64
	circuitTrips int64
	failovers   int64
	retries     int64

	mu            sync.Mutex
	totalDuration time.Duration
	totalWait     time.Duration
	durationCount int64
	waitCount     int64
}

func NewStats() *Stats { return &Stats{} }

func (s *Stats) RecordAttempt() { atomic.AddInt64(&s.total, 1) }

func (s *Stats) RecordSuccess(duration time.Duration) {
	atomic.AddInt64(&s.successful, 1)
	s.mu.Lock()
	s.totalDuration += duration
	s.durationCount++
	s.mu.Unlock()
}

func (s *Stats) RecordFailure() { atomic.AddInt64(&s.failed, 1) }

func (s *Stats) RecordWait(d time.Duration) {
	s.mu.Lock()
	s.totalWait += d
	s.waitCount++
	s.mu.Unlock()
}

func (s *Stats) RecordCircuitTrip() { atomic.AddInt64(&s.circuitTrips, 1) }
func (s *Stats) RecordFailover()    { atomic.AddInt64(&s.failovers, 1) }
func (s *Stats) RecordRetry()       { atomic.AddInt64(&s.retries, 1) }

type Snapshot struct {
	Total              int64
	Successful         int64
	Failed             int64
	AverageDuration    time.Duration
	AverageSemaphoreWait time.Duration
	CircuitTrips       int64
	FailoverCount      int64
	RetryCount         int64
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var avgDur, avgWait time.Duration
	if s.durationCount > 0 {
		avgDur = s.totalDuration / time.Duration(s.durationCount)
	}
	if s.waitCount > 0 {
		avgWait = s.totalWait / time.Duration(s.waitCount)
	}

	return Snapshot{
		Total:                atomic.LoadInt64(&s.total),
		Successful:           atomic.LoadInt64(&s.successful),
		Failed:               atomic.LoadInt64(&s.failed),
		AverageDuration:      avgDur,
		AverageSemaphoreWait: avgWait,
		CircuitTrips:         atomic.LoadInt64(&s.circuitTrips),
		FailoverCount:        atomic.LoadInt64(&s.failovers),
		RetryCount:           atomic.LoadInt64(&s.retries),
	}
}
