package frontier

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webforge/crawlkit/internal/models"
)

func scorePtr(v float64) *float64 { return &v }

func TestDequeueOrderIsBestFirstThenPriorityTiers(t *testing.T) {
	f := New(DefaultConfig(), nil)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/low", Priority: models.PriorityLow}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/high", Priority: models.PriorityHigh}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/medium", Priority: models.PriorityMedium}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/scored", Score: scorePtr(0.9)}))

	req, ok := f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example/scored", req.URL, "best-first heap entries must dequeue before any priority tier")

	req, ok = f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example/high", req.URL)

	req, ok = f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example/medium", req.URL)

	req, ok = f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example/low", req.URL)

	_, ok = f.Dequeue()
	assert.False(t, ok)
}

func TestBestFirstPreservesInsertionOrderOnScoreTies(t *testing.T) {
	f := New(DefaultConfig(), nil)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/first", Score: scorePtr(0.5)}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/second", Score: scorePtr(0.5)}))

	req, ok := f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example/first", req.URL)

	req, ok = f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://a.example/second", req.URL)
}

func TestPriorityFIFOPreservesInsertionOrderWithinTier(t *testing.T) {
	f := New(DefaultConfig(), nil)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/1", Priority: models.PriorityMedium}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/2", Priority: models.PriorityMedium}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/3", Priority: models.PriorityMedium}))

	for _, want := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"} {
		req, ok := f.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, req.URL)
	}
}

func TestHostFairnessQueueDequeuesIndependentlyOfPriorityTiers(t *testing.T) {
	f := New(DefaultConfig(), nil)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://host-a.example/1", Priority: models.PriorityLow}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://host-a.example/2", Priority: models.PriorityLow}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://host-b.example/1", Priority: models.PriorityLow}))

	req, ok := f.DequeueForHost("host-a.example")
	require.True(t, ok)
	assert.Equal(t, "https://host-a.example/1", req.URL)

	req, ok = f.DequeueForHost("host-a.example")
	require.True(t, ok)
	assert.Equal(t, "https://host-a.example/2", req.URL)

	_, ok = f.DequeueForHost("host-a.example")
	assert.False(t, ok)

	req, ok = f.DequeueForHost("host-b.example")
	require.True(t, ok)
	assert.Equal(t, "https://host-b.example/1", req.URL)
}

func TestHostFairnessQueueCapsAtMaxRequestsPerHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestsPerHost = 2
	f := New(cfg, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://host-a.example/x", Priority: models.PriorityLow}))
	}

	m := f.Metrics()
	assert.Equal(t, 5, m.Total, "fairness cap must not drop requests from their primary tier")
	assert.Equal(t, 1, m.HostCount)
}

func TestEnqueueSpillsToDiskAboveMemoryCap(t *testing.T) {
	sq, err := NewSpilloverQueue(afero.NewMemMapFs(), "/spill/queue.jsonl")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MemoryCap = 1
	f := New(cfg, sq)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/in-memory", Priority: models.PriorityLow}))
	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://a.example/spilled", Priority: models.PriorityLow}))

	assert.Equal(t, 1, f.Metrics().Total, "the second request should have spilled to disk rather than growing in-memory count")

	n, err := f.DrainSpillover()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, f.Metrics().Total)
}

func TestCleanupRemovesIdleEmptyHostQueues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestAge = 10 * time.Millisecond
	f := New(cfg, nil)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://idle.example/1", Priority: models.PriorityLow}))
	_, ok := f.DequeueForHost("idle.example")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	removed := f.Cleanup()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, f.Metrics().HostCount)
}

func TestCleanupKeepsNonEmptyHostQueues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRequestAge = 10 * time.Millisecond
	f := New(cfg, nil)

	require.NoError(t, f.Enqueue(models.CrawlRequest{URL: "https://active.example/1", Priority: models.PriorityLow}))

	time.Sleep(20 * time.Millisecond)

	removed := f.Cleanup()
	assert.Equal(t, 0, removed, "a host queue still holding items must not be cleaned up")
	assert.Equal(t, 1, f.Metrics().HostCount)
}
