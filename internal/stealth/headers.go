package stealth

import (
	"hash/fnv"
	"math/rand"
	"net/http"
	"sync"
)

// UAStrategy selects how next_user_agent() rotates across browserProfile
// entries, per spec §4.11.
type UAStrategy string

const (
	UARandom     UAStrategy = "random"
	UASequential UAStrategy = "sequential"
	UASticky     UAStrategy = "sticky"
	UADomainBased UAStrategy = "domain_based"
)

// uaState is the per-session rotation bookkeeping next_user_agent() needs:
// a sequential cursor, a sticky pick, and domain-keyed picks.
type uaState struct {
	mu         sync.Mutex
	strategy   UAStrategy
	rng        *rand.Rand
	seqIndex   int
	stickyIdx  int
	stickySet  bool
	byDomain   map[string]int
}

func newUAState(strategy UAStrategy, seed int64) *uaState {
	return &uaState{
		strategy: strategy,
		rng:      rand.New(rand.NewSource(seed)),
		byDomain: make(map[string]int),
	}
}

// NextUserAgent picks a profile index according to the configured
// strategy. host is only consulted under DomainBased.
func (s *uaState) NextUserAgent(host string) browserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.strategy {
	case UASequential:
		idx := s.seqIndex % len(allProfiles)
		s.seqIndex++
		return allProfiles[idx]
	case UASticky:
		if !s.stickySet {
			s.stickyIdx = s.rng.Intn(len(allProfiles))
			s.stickySet = true
		}
		return allProfiles[s.stickyIdx]
	case UADomainBased:
		idx, ok := s.byDomain[host]
		if !ok {
			idx = domainHashIndex(host, len(allProfiles))
			s.byDomain[host] = idx
		}
		return allProfiles[idx]
	default: // UARandom
		return allProfiles[s.rng.Intn(len(allProfiles))]
	}
}

// domainHashIndex deterministically maps a host to a profile index so the
// same host always draws the same UA without keeping unbounded state.
func domainHashIndex(host string, n int) int {
	if n == 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return int(h.Sum32()) % n
}

// GenerateHeaders builds a consistent header set for profile: Accept,
// Accept-Language, Accept-Encoding, and Sec-CH-UA family all drawn from
// the same profile so they remain mutually plausible (spec §4.11's
// consistency invariant).
func GenerateHeaders(profile browserProfile) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", profile.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", profile.AcceptLanguage)
	h.Set("Accept-Encoding", "gzip, deflate, br")
	if profile.SecChUA != "" {
		h.Set("Sec-CH-UA", profile.SecChUA)
		h.Set("Sec-CH-UA-Mobile", profile.SecChUAMobile)
		h.Set("Sec-CH-UA-Platform", profile.SecChUAPlatform)
	}
	return h
}
