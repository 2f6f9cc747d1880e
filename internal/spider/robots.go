package spider

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsCache fetches and caches per-host robots.txt, grounded on the
// teacher's per-host resource bookkeeping style (a mutex-guarded map
// keyed by host, same shape as the rate limiter's per-host buckets).
type RobotsCache struct {
	mu      sync.Mutex
	client  *http.Client
	agent   string
	entries map[string]*robotstxt.RobotsData
}

func NewRobotsCache(client *http.Client, userAgent string) *RobotsCache {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsCache{client: client, agent: userAgent, entries: make(map[string]*robotstxt.RobotsData)}
}

// Allowed reports whether rawURL may be fetched under the target host's
// robots.txt, fetching and caching it on first access. A robots.txt fetch
// failure is treated as permissive (allow), matching common crawler
// behavior when the policy itself is unreachable.
func (c *RobotsCache) Allowed(rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parsing URL for robots check: %w", err)
	}

	data, err := c.dataFor(u)
	if err != nil || data == nil {
		return true, nil
	}
	group := data.FindGroup(c.agent)
	return group.Test(u.Path), nil
}

// CrawlDelay returns the crawl-delay directive for the host, or 0 if none
// is declared.
func (c *RobotsCache) CrawlDelay(rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	data, err := c.dataFor(u)
	if err != nil || data == nil {
		return 0
	}
	group := data.FindGroup(c.agent)
	return group.CrawlDelay
}

func (c *RobotsCache) dataFor(u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host
	c.mu.Lock()
	if data, ok := c.entries[host]; ok {
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, host)
	resp, err := c.client.Get(robotsURL)
	if err != nil {
		return nil, fmt.Errorf("fetching robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parsing robots.txt: %w", err)
	}

	c.mu.Lock()
	c.entries[host] = data
	c.mu.Unlock()
	return data, nil
}
