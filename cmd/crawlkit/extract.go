package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/pipeline"
)

var (
	extractURL            string
	extractStrategy       string
	extractShowConfidence bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "extract structured content from a single URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		if extractURL == "" {
			return fmt.Errorf("--url is required")
		}

		kind, err := pipeline.ParseStrategyKind(extractStrategy)
		if err != nil {
			return err
		}

		rt := newRuntime(appConfig)
		rt.pipeline = pipeline.New(pipeline.Config{
			GateHiThreshold: appConfig.Pipeline.GateHiThreshold,
			GateLoThreshold: appConfig.Pipeline.GateLoThreshold,
			CacheMode:       "bypass",
			ExtractionMode:  extractStrategy,
			Strategy:        pipeline.ExtractionStrategy{Kind: kind},
		}, pipeline.NewCache(1, 0, true), pipeline.NewFetcher(pipeline.FetcherConfig{}), pipeline.NewExtractor(nil), rt.resources)

		req := models.CrawlRequest{URL: models.NormalizeURL(extractURL)}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}

		result, err := rt.pipeline.Run(context.Background(), req, rt.headers)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}

		return renderExtractResult(result, extractShowConfidence)
	},
}

func renderExtractResult(result models.PipelineResult, showConfidence bool) error {
	switch outputFmt {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "table":
		fmt.Printf("%-16s %s\n", "URL", result.URL)
		fmt.Printf("%-16s %d\n", "Status", result.StatusCode)
		fmt.Printf("%-16s %s\n", "Gate", result.GateDecision)
		fmt.Printf("%-16s %.2f\n", "Quality", result.QualityScore)
		if result.Document != nil {
			fmt.Printf("%-16s %s\n", "Title", result.Document.Title)
			fmt.Printf("%-16s %d\n", "Words", result.Document.WordCount)
			fmt.Printf("%-16s %d\n", "Links", len(result.Document.Links))
		}
	default:
		if result.Document != nil {
			fmt.Println(result.Document.Title)
			fmt.Println(result.Document.Text)
		}
		if showConfidence {
			fmt.Printf("\nquality=%.2f gate=%s\n", result.QualityScore, result.GateDecision)
		}
	}
	return nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "target URL (required)")
	extractCmd.Flags().StringVarP(&extractStrategy, "strategy", "s", "css", "extraction strategy (css|trek|regex|llm)")
	extractCmd.Flags().BoolVar(&extractShowConfidence, "show-confidence", false, "print the quality score and gate decision")
}
