package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/webforge/crawlkit/internal/config"
	"github.com/webforge/crawlkit/internal/obslog"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configFile string
	verbose    bool
	logLevel   string
	outputFmt  string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "crawlkit",
	Short:   "Query-aware web crawling, extraction and streaming toolkit",
	Version: Version,
	Long: `crawlkit is a web crawling and extraction toolkit:

  • Single-URL extraction with pluggable strategies (css, trek, regex, llm)
  • Recursive query-aware spidering with adaptive early stop
  • Streaming result delivery over NDJSON, SSE and WebSocket
  • Per-host rate limiting, circuit breakers and stealth header presets

Version: ` + Version + `
Built:   ` + BuildTime,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logCfg := obslog.Config{
			Level:      cfg.Logging.Level,
			LogDir:     cfg.Logging.LogDir,
			MaxSize:    cfg.Logging.Rotation.MaxSize,
			MaxBackups: cfg.Logging.Rotation.MaxBackups,
			MaxAge:     cfg.Logging.Rotation.MaxAge,
			Compress:   cfg.Logging.Rotation.Compress,
		}
		if logLevel != "" {
			logCfg.Level = logLevel
		}
		if err := obslog.Init(logCfg); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		if verbose {
			obslog.Info("verbose mode enabled")
		}

		appConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format (json|table|text)")

	rootCmd.AddCommand(versionCmd, extractCmd, crawlCmd, searchCmd, healthCmd, validateCmd, cacheCmd, serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crawlkit %s (built %s)\n", Version, BuildTime)
	},
}

// installSignalHandler arranges for a long-running command (crawl, search)
// to cancel its context on SIGINT/SIGTERM instead of hard-exiting, so the
// spider's cooperative cancellation (spec §5 "Cancellation") gets a chance
// to run, report partial stats and write a report before the process ends.
func installSignalHandler(cancel func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		obslog.Warnf("received signal %v, shutting down", sig)
		cancel()
	}()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
