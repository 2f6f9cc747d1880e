package llm

import (
	"sort"
	"sync"

	"github.com/webforge/crawlkit/internal/resource"
)

// Strategy picks among available deployments when the primary is
// unavailable or its circuit is open, per spec §4.10's failover chain.
type Strategy string

const (
	StrategySequential   Strategy = "sequential"
	StrategyLowestCost   Strategy = "lowest_cost"
	StrategyFastestFirst Strategy = "fastest_first"
	StrategyRoundRobin   Strategy = "round_robin"
	StrategyHealthBased  Strategy = "health_based"
)

// deployment pairs a provider with its own circuit breaker and stats,
// mirroring the llmux Router's per-deployment bookkeeping.
type deployment struct {
	provider Provider
	breaker  *resource.CircuitBreaker
	stats    *Stats
}

func newDeployment(p Provider, cbCfg resource.CircuitBreakerConfig) *deployment {
	return &deployment{provider: p, breaker: resource.NewCircuitBreaker(cbCfg), stats: NewStats()}
}

// Chain orders a set of deployments by Strategy and skips any whose
// circuit is open or that report themselves unavailable.
type Chain struct {
	mu          sync.Mutex
	strategy    Strategy
	deployments []*deployment
	rrCursor    int
}

func NewChain(strategy Strategy) *Chain {
	return &Chain{strategy: strategy}
}

func (c *Chain) Add(d *deployment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deployments = append(c.deployments, d)
}

// Candidates returns the usable deployments, ordered per strategy.
func (c *Chain) Candidates(tokens int) []*deployment {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := make([]*deployment, 0, len(c.deployments))
	for _, d := range c.deployments {
		if d.breaker.Allow() && d.provider.IsAvailable() {
			available = append(available, d)
		}
	}
	if len(available) == 0 {
		return nil
	}

	switch c.strategy {
	case StrategyLowestCost:
		sort.Slice(available, func(i, j int) bool {
			return available[i].provider.EstimateCost(tokens) < available[j].provider.EstimateCost(tokens)
		})
	case StrategyFastestFirst:
		sort.Slice(available, func(i, j int) bool {
			return available[i].stats.Snapshot().AverageDuration < available[j].stats.Snapshot().AverageDuration
		})
	case StrategyRoundRobin:
		c.rrCursor = (c.rrCursor + 1) % len(available)
		rotated := make([]*deployment, 0, len(available))
		rotated = append(rotated, available[c.rrCursor:]...)
		rotated = append(rotated, available[:c.rrCursor]...)
		available = rotated
	case StrategyHealthBased:
		sort.Slice(available, func(i, j int) bool {
			return healthScore(available[i].stats.Snapshot()) > healthScore(available[j].stats.Snapshot())
		})
	case StrategySequential:
		// registration order, no reordering
	}
	return available
}

func healthScore(s Snapshot) float64 {
	finished := s.Successful + s.Failed
	if finished == 0 {
		return 1.0
	}
	return float64(s.Successful) / float64(finished)
}
