package frontier

import "github.com/webforge/crawlkit/internal/models"

// priorityFIFO is a plain ordered slice-backed queue, used for the
// three priority tiers (Critical+High share one tier per spec §4.6,
// plus Medium and Low). Generalized from teacher's channel-backed
// `pendingURLs` in url_queue.go, expanded from one channel into three
// tiers consulted in a fixed order.
type priorityFIFO struct {
	items []models.CrawlRequest
}

func newPriorityFIFO() *priorityFIFO {
	return &priorityFIFO{items: make([]models.CrawlRequest, 0)}
}

func (f *priorityFIFO) push(req models.CrawlRequest) {
	f.items = append(f.items, req)
}

func (f *priorityFIFO) pop() (models.CrawlRequest, bool) {
	if len(f.items) == 0 {
		return models.CrawlRequest{}, false
	}
	req := f.items[0]
	f.items = f.items[1:]
	return req, true
}

func (f *priorityFIFO) len() int { return len(f.items) }
