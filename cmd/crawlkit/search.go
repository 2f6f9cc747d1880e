package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/frontier"
	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/scorer"
	"github.com/webforge/crawlkit/internal/seeds"
	"github.com/webforge/crawlkit/internal/spider"
)

var (
	searchQuery    string
	searchSeeds    []string
	searchSeedFile string
	searchMaxPages int
	searchTopN     int
)

// searchCmd runs a query-foraging spider: the scorer's BM25 relevance
// term is weighted against searchQuery, and the crawl's own early-stop
// window (scorer.CheckEarlyStop) lets the run end once relevance decays,
// instead of requiring the caller to pick a depth/page budget up front.
var searchCmd = &cobra.Command{
	Use:   "search --query Q --seed URL [--seed URL...]",
	Short: "crawl toward a query, ranking discovered pages by relevance",
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchQuery == "" {
			return fmt.Errorf("--query is required")
		}
		if searchSeedFile != "" {
			fileSeeds, err := seeds.ReadFromFile(searchSeedFile)
			if err != nil {
				return fmt.Errorf("loading --seed-file: %w", err)
			}
			searchSeeds = append(searchSeeds, fileSeeds...)
		}
		if len(searchSeeds) == 0 {
			return fmt.Errorf("at least one --seed URL or --seed-file is required")
		}
		return runSearch()
	},
}

type scoredResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Quality float64 `json:"quality_score"`
}

// resultCollector gathers the OnResult callbacks a spider run fires from
// its worker goroutines into a plain slice, under a mutex since workers
// call it concurrently (spec §5's "shared resources, short-held lock"
// discipline).
type resultCollector struct {
	mu      sync.Mutex
	results []scoredResult
}

func (c *resultCollector) onResult(_ models.CrawlRequest, result models.PipelineResult) {
	title := ""
	if result.Document != nil {
		title = result.Document.Title
	}
	c.mu.Lock()
	c.results = append(c.results, scoredResult{URL: result.URL, Title: title, Quality: result.QualityScore})
	c.mu.Unlock()
}

func (c *resultCollector) topN(n int) []scoredResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	results := append([]scoredResult(nil), c.results...)
	sort.Slice(results, func(i, j int) bool { return results[i].Quality > results[j].Quality })
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results
}

func runSearch() error {
	rt := newRuntime(appConfig)
	jobID := uuid.NewString()

	scorerCfg := scorer.DefaultConfig()
	scorerCfg.Enabled = true
	scorerCfg.TargetQuery = searchQuery
	scr := scorer.New(scorerCfg)

	collector := &resultCollector{}

	opts := spider.DefaultOptions()
	opts.SeedURLs = searchSeeds
	opts.MaxPages = searchMaxPages
	opts.Strategy = spider.StrategyBestFirst
	opts.OnResult = collector.onResult

	fr := frontier.New(frontier.DefaultConfig(), nil)
	robots := spider.NewRobotsCache(&http.Client{Timeout: 10 * time.Second}, rt.headers.Get("User-Agent"))
	s := spider.New(jobID, opts, fr, rt.pipeline, scr, robots, rt.headers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installSignalHandler(cancel)

	if _, _, err := s.Run(ctx); err != nil {
		return fmt.Errorf("search crawl failed: %w", err)
	}

	return renderSearchResults(collector.topN(searchTopN))
}

func renderSearchResults(results []scoredResult) error {
	if outputFmt == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for i, r := range results {
		fmt.Printf("%2d. [%.2f] %s\n    %s\n", i+1, r.Quality, r.Title, r.URL)
	}
	return nil
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "target query for relevance scoring (required)")
	searchCmd.Flags().StringSliceVar(&searchSeeds, "seed", nil, "seed URL, may be repeated")
	searchCmd.Flags().StringVar(&searchSeedFile, "seed-file", "", "file of seed URLs, one per line (# comments allowed), merged with --seed")
	searchCmd.Flags().IntVar(&searchMaxPages, "max-pages", 200, "maximum pages to crawl")
	searchCmd.Flags().IntVar(&searchTopN, "top", 10, "number of top results to print")
}
