package frontier

import (
	"container/heap"
	"time"

	"github.com/webforge/crawlkit/internal/models"
)

// scoredItem is a best-first heap entry: score-ordered (max-heap), ties
// broken by insertion order to keep dequeue deterministic per spec
// §4.6's "ties by insertion time" rule.
type scoredItem struct {
	req       models.CrawlRequest
	score     float64
	insertSeq int64
}

// scoredHeap implements container/heap.Interface as a max-heap on
// score, generalized from the teacher's channel-backed FIFO
// (url_queue.go has no notion of priority at all) into the best-first
// structure spec §4.6 requires.
type scoredHeap []*scoredItem

func (h scoredHeap) Len() int { return len(h) }
func (h scoredHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].insertSeq < h[j].insertSeq
}
func (h scoredHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x any)   { *h = append(*h, x.(*scoredItem)) }
func (h *scoredHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// BestFirstQueue wraps scoredHeap behind heap.Interface with an
// insertion sequence counter for deterministic tie-breaking.
type BestFirstQueue struct {
	h       scoredHeap
	nextSeq int64
}

func NewBestFirstQueue() *BestFirstQueue {
	return &BestFirstQueue{h: make(scoredHeap, 0)}
}

func (q *BestFirstQueue) Push(req models.CrawlRequest, score float64) {
	q.nextSeq++
	heap.Push(&q.h, &scoredItem{req: req, score: score, insertSeq: q.nextSeq})
}

func (q *BestFirstQueue) Pop() (models.CrawlRequest, bool) {
	if q.h.Len() == 0 {
		return models.CrawlRequest{}, false
	}
	item := heap.Pop(&q.h).(*scoredItem)
	return item.req, true
}

func (q *BestFirstQueue) Len() int { return q.h.Len() }

// insertedAt records enqueue time for host-queue staleness checks
// elsewhere in the package; kept here since scoredItem doesn't carry
// it directly (EnqueuedAt already lives on CrawlRequest).
func insertedAt(req models.CrawlRequest) time.Time { return req.EnqueuedAt }
