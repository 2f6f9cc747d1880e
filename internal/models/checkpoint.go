package models

import (
	"encoding/json"
	"os"
	"time"
)

// SpiderCheckpoint is a snapshot of an in-progress spider run,
// generalized from the teacher's per-domain checkpoint, that can be saved
// to and loaded from a JSON file. The spider does not create or consume
// checkpoints; `crawl status <job-id>` reads the saved run report instead.
type SpiderCheckpoint struct {
	JobID        string       `json:"job_id"`
	SeedURLs     []string     `json:"seed_urls"`
	VisitedURLs  []string     `json:"visited_urls"`
	PendingURLs  []CrawlRequest `json:"pending_urls"`
	FailedURLs   []string     `json:"failed_urls"`
	CurrentDepth int          `json:"current_depth"`
	Stats        TaskStats    `json:"stats"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TaskStats is the run-level counters surfaced by spider status and the
// crawl report.
type TaskStats struct {
	PagesCrawled   int     `json:"pages_crawled"`
	PagesFailed    int     `json:"pages_failed"`
	BytesFetched   int64   `json:"bytes_fetched"`
	DurationSecs   float64 `json:"duration_secs"`
	UniqueHosts    int     `json:"unique_hosts"`
}

// ToJSON / FromJSON round-trip a checkpoint through its JSON encoding;
// SaveToFile and LoadCheckpointFromFile add the file I/O.
func (c *SpiderCheckpoint) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func (c *SpiderCheckpoint) FromJSON(data []byte) error {
	return json.Unmarshal(data, c)
}

func (c *SpiderCheckpoint) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadCheckpointFromFile(path string) (*SpiderCheckpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cp SpiderCheckpoint
	if err := cp.FromJSON(data); err != nil {
		return nil, err
	}
	return &cp, nil
}
