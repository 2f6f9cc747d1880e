package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/frontier"
	"github.com/webforge/crawlkit/internal/obslog"
	"github.com/webforge/crawlkit/internal/report"
	"github.com/webforge/crawlkit/internal/scorer"
	"github.com/webforge/crawlkit/internal/spider"
)

var (
	crawlMaxDepth    int
	crawlMaxPages    int
	crawlStrategy    string
	crawlConcurrency int
	crawlTimeoutSecs int
	crawlDelayMs     int
	crawlRespectBots bool
	crawlFollowRdr   bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl --url U [flags]",
	Short: "recursively crawl starting from a seed URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := cmd.Flags().GetString("url")
		if err != nil {
			return err
		}
		if url == "" {
			return fmt.Errorf("--url is required")
		}
		return runCrawl(url)
	},
}

var crawlStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "print the saved run report for a completed crawl job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJobReport(args[0])
	},
}

func runCrawl(seedURL string) error {
	rt := newRuntime(appConfig)
	jobID := uuid.NewString()

	strategy := spider.Strategy(crawlStrategy)
	switch strategy {
	case spider.StrategyBreadthFirst, spider.StrategyDepthFirst, spider.StrategyBestFirst:
	default:
		strategy = spider.StrategyBestFirst
	}

	opts := spider.Options{
		SeedURLs:        []string{seedURL},
		Strategy:        strategy,
		MaxDepth:        crawlMaxDepth,
		MaxPages:        crawlMaxPages,
		MaxTime:         time.Duration(crawlTimeoutSecs) * time.Second,
		RespectRobots:   crawlRespectBots,
		FollowRedirects: crawlFollowRdr,
		Concurrency:     crawlConcurrency,
		DelayBetween:    time.Duration(crawlDelayMs) * time.Millisecond,
	}

	fr := frontier.New(frontier.DefaultConfig(), nil)
	scr := scorer.New(scorer.DefaultConfig())
	robots := spider.NewRobotsCache(&http.Client{Timeout: 10 * time.Second}, rt.headers.Get("User-Agent"))

	s := spider.New(jobID, opts, fr, rt.pipeline, scr, robots, rt.headers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installSignalHandler(cancel)

	var bar *progressbar.ProgressBar
	if outputFmt != "json" {
		bar = progressbar.Default(int64(opts.MaxPages), "crawling")
		go reportProgress(ctx, s, bar)
	}

	start := time.Now()
	stats, stopReason, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	gen := report.NewGenerator(appConfig.Output.BaseDir)
	rpt := report.Report{
		JobID:     jobID,
		SeedURLs:  opts.SeedURLs,
		StartTime: start,
		EndTime:   time.Now(),
		Duration:  time.Since(start).Seconds(),
		Stats:     stats,
	}
	if err := gen.Generate(rpt); err != nil {
		obslog.Error(err, "failed to write run report")
	}

	return renderCrawlResult(jobID, stats, stopReason)
}

func reportProgress(ctx context.Context, s *spider.Spider, bar *progressbar.ProgressBar) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := s.Status(false)
			_ = bar.Set(status.Stats.PagesCrawled)
			if !status.Running {
				return
			}
		}
	}
}

func renderCrawlResult(jobID string, stats interface{}, stopReason spider.StopReason) error {
	if outputFmt == "json" {
		data, err := json.MarshalIndent(map[string]interface{}{
			"job_id":      jobID,
			"stats":       stats,
			"stop_reason": stopReason,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("\njob %s finished: %s\n", jobID, stopReason)
	fmt.Printf("stats: %+v\n", stats)
	return nil
}

func printJobReport(jobID string) error {
	path := fmt.Sprintf("%s/%s/reports/run_report.json", appConfig.Output.BaseDir, jobID)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading report for job %s: %w", jobID, err)
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	crawlCmd.Flags().StringP("url", "u", "", "seed URL (required)")
	crawlCmd.Flags().IntVarP(&crawlMaxDepth, "max-depth", "d", 3, "maximum crawl depth")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 1000, "maximum pages to crawl")
	crawlCmd.Flags().StringVar(&crawlStrategy, "strategy", "best_first", "frontier strategy (breadth_first|depth_first|best_first)")
	crawlCmd.Flags().IntVar(&crawlConcurrency, "concurrency", 4, "worker concurrency")
	crawlCmd.Flags().IntVar(&crawlTimeoutSecs, "timeout-seconds", 0, "maximum run time in seconds, 0 = unbounded")
	crawlCmd.Flags().IntVar(&crawlDelayMs, "delay-ms", 0, "delay between requests to the same worker, in ms")
	crawlCmd.Flags().BoolVar(&crawlRespectBots, "respect-robots", true, "honor robots.txt")
	crawlCmd.Flags().BoolVar(&crawlFollowRdr, "follow-redirects", true, "follow discovered links to other hosts")

	crawlCmd.AddCommand(crawlStatusCmd)
}
