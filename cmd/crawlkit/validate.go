package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/models"
)

var validateTargetURL string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "validate the loaded config file (and optionally a target URL)",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("config file: %s\n", describeConfigSource())
		if err := appConfig.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		fmt.Println("config OK")

		if validateTargetURL != "" {
			req := models.CrawlRequest{URL: models.NormalizeURL(validateTargetURL)}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("invalid target URL: %w", err)
			}
			fmt.Printf("url OK: %s\n", req.URL)
		}
		return nil
	},
}

func describeConfigSource() string {
	if configFile == "" {
		return "(searched ./configs, ., ~/.crawlkit)"
	}
	return configFile
}

func init() {
	validateCmd.Flags().StringVar(&validateTargetURL, "url", "", "also validate this target URL")
}
