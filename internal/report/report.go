// Package report generates JSON crawl/spider run summaries, generalized
// from the teacher's internal/utils.Reporter (which wrote per-domain JS
// crawl reports) into a domain-neutral run report (SPEC_FULL.md
// supplemented feature #3).
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
)

// Report is a single crawl/spider run's JSON-serializable summary.
type Report struct {
	JobID     string             `json:"job_id"`
	SeedURLs  []string           `json:"seed_urls"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time"`
	Duration  float64            `json:"duration_secs"`
	Stats     models.TaskStats   `json:"stats"`
	HostStats map[string]float64 `json:"host_success_rate"`
	Failed    []string           `json:"failed_urls"`
	OutputDir string             `json:"output_dir"`
}

// Generator writes reports under <outputDir>/<jobID>/reports/.
type Generator struct {
	outputDir string
}

func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir}
}

// Generate renders the report struct and saves it as JSON.
func (g *Generator) Generate(r Report) error {
	dir := filepath.Join(g.outputDir, r.JobID, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	r.OutputDir = filepath.Join(g.outputDir, r.JobID)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	path := filepath.Join(dir, "run_report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}

	obslog.Debugf("report written: %s", path)
	return nil
}
