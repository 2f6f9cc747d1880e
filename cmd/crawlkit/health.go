package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/httpapi"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "check component-level health (config, memory, rate limiter, resource manager)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := newRuntime(appConfig)
		results := checkHealth(rt)
		return renderHealth(results)
	},
}

// checkHealth reuses httpapi.CheckHealth so the CLI's `health` command and
// the `serve` command's `/api/health/detailed` route report identically.
func checkHealth(rt *runtime) []httpapi.ComponentHealth {
	return httpapi.CheckHealth(rt.resources, appConfig.Memory.GCThreshold)
}

func renderHealth(results []httpapi.ComponentHealth) error {
	if outputFmt == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	for _, r := range results {
		fmt.Printf("%-20s %-10s %s\n", r.Component, r.Status, r.Detail)
	}
	return nil
}
