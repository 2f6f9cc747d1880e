package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/pipeline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "inspect the pipeline result cache configuration",
}

// cacheStatusCmd reports the cache a fresh process would start with,
// since the LRU cache lives only for the lifetime of one crawlkit
// invocation (spec §4.5 has no cache-persistence requirement). It exists
// to let an operator confirm config.yaml's pipeline.cache_* settings
// resolve the way they expect before a long crawl run depends on them.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "show the cache settings resolved from config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := pipeline.NewCache(10000, time.Duration(appConfig.Pipeline.CacheTTLSeconds)*time.Second, appConfig.Pipeline.CacheMode == "bypass")
		status := cache.Status()
		fmt.Printf("entries:     %d\n", status.Entries)
		fmt.Printf("max_entries: %d\n", status.MaxEntries)
		fmt.Printf("ttl:         %s\n", status.TTL)
		fmt.Printf("bypass_mode: %v\n", status.BypassMode)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
}
