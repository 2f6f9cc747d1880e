package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, 16, cfg.Pipeline.MaxConcurrency)
	require.Equal(t, "best_first", cfg.Spider.Strategy)
	require.Equal(t, "low", cfg.Stealth.Preset)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("pipeline:\n  max_concurrency: 4\nspider:\n  strategy: depth_first\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Pipeline.MaxConcurrency)
	require.Equal(t, "depth_first", cfg.Spider.Strategy)
}

func TestValidateRejectsBadGateThresholds(t *testing.T) {
	cfg := &Config{
		Pipeline:  PipelineConfig{MaxConcurrency: 1, GateHiThreshold: 0.2, GateLoThreshold: 0.5},
		RateLimit: RateLimitConfig{RequestsPerSecondPerHost: 1},
		PDF:       PDFConfig{MaxConcurrent: 1},
		Headless:  HeadlessConfig{MaxPoolSize: 1},
		Memory:    MemoryConfig{GlobalMemoryLimitMB: 512, PressureThreshold: 0.8},
		Spider:    SpiderConfig{Strategy: "best_first"},
		Stealth:   StealthConfig{Preset: "none"},
	}
	require.Error(t, cfg.Validate())
}
