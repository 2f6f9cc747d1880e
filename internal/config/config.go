// Package config loads the application configuration, mirroring the
// teacher's internal/core.Config: a root struct with mapstructure tags,
// viper-backed file/env loading, defaults, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the root application configuration, covering every
// component's tunables (spec §6 "External Interfaces - Configuration").
type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	RateLimit RateLimitConfig `mapstructure:"rate_limiting"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Spider    SpiderConfig    `mapstructure:"spider"`
	Stealth   StealthConfig   `mapstructure:"stealth"`
	Query     QueryConfig     `mapstructure:"query"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Output    OutputConfig    `mapstructure:"output"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// PipelineConfig bounds the gate-and-extract pipeline (C6).
type PipelineConfig struct {
	MaxConcurrency  int     `mapstructure:"max_concurrency"`
	CacheTTLSeconds int     `mapstructure:"cache_ttl"`
	CacheMode       string  `mapstructure:"cache_mode"` // "normal" | "bypass"
	GateHiThreshold float64 `mapstructure:"gate_hi_threshold"`
	GateLoThreshold float64 `mapstructure:"gate_lo_threshold"`
}

// RateLimitConfig configures the per-host token bucket (C1).
type RateLimitConfig struct {
	RequestsPerSecondPerHost float64 `mapstructure:"requests_per_second_per_host"`
	BurstSize                int     `mapstructure:"burst_size"`
}

// PDFConfig bounds the PDF extraction semaphore (C5).
type PDFConfig struct {
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// HeadlessConfig bounds the browser pool (C3).
type HeadlessConfig struct {
	MaxPoolSize   int `mapstructure:"max_pool_size"`
	MinPoolSize   int `mapstructure:"min_pool_size"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// MemoryConfig bounds the memory manager (C2).
type MemoryConfig struct {
	GlobalMemoryLimitMB int     `mapstructure:"global_memory_limit_mb"`
	PressureThreshold   float64 `mapstructure:"pressure_threshold"`
	GCThreshold         float64 `mapstructure:"gc_threshold"`
}

// SpiderConfig configures the recursive crawl driver (C9).
type SpiderConfig struct {
	Strategy        string `mapstructure:"strategy"` // breadth_first | depth_first | best_first
	MaxDepth        int    `mapstructure:"max_depth"`
	MaxPages        int    `mapstructure:"max_pages"`
	RespectRobots   bool   `mapstructure:"respect_robots"`
	FollowRedirects bool   `mapstructure:"follow_redirects"`
}

// StealthConfig selects the anti-fingerprinting preset (C12).
type StealthConfig struct {
	Preset string `mapstructure:"preset"` // none | low | medium | high
}

// QueryConfig enables query-aware scoring and foraging (C8).
type QueryConfig struct {
	Foraging    bool   `mapstructure:"query_foraging"`
	TargetQuery string `mapstructure:"target_query"`
}

// LoggingConfig mirrors the teacher's LoggingConfig shape.
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig configures where crawl/spider artifacts land.
type OutputConfig struct {
	BaseDir          string `mapstructure:"base_dir"`
	DomainSeparation bool   `mapstructure:"domain_separation"`
}

// HTTPConfig bounds the `serve` command's API surface (spec §6 "External
// Interfaces - HTTP API / Streaming").
type HTTPConfig struct {
	Addr              string `mapstructure:"addr"`
	BatchConcurrency  int    `mapstructure:"batch_concurrency"`
	SSERetryMs        int    `mapstructure:"sse_retry_ms"`
}

// Validate enforces sane bounds, matching the teacher's
// ResourceConfig.Validate strictness.
func (c *Config) Validate() error {
	if c.Pipeline.MaxConcurrency < 1 {
		return fmt.Errorf("pipeline.max_concurrency must be >= 1, got %d", c.Pipeline.MaxConcurrency)
	}
	if c.Pipeline.GateHiThreshold < c.Pipeline.GateLoThreshold {
		return fmt.Errorf("pipeline.gate_hi_threshold must be >= gate_lo_threshold")
	}
	if c.Pipeline.GateHiThreshold < 0 || c.Pipeline.GateHiThreshold > 1 {
		return fmt.Errorf("pipeline.gate_hi_threshold must be in [0,1]")
	}
	if c.Pipeline.GateLoThreshold < 0 || c.Pipeline.GateLoThreshold > 1 {
		return fmt.Errorf("pipeline.gate_lo_threshold must be in [0,1]")
	}
	if c.RateLimit.RequestsPerSecondPerHost <= 0 {
		return fmt.Errorf("rate_limiting.requests_per_second_per_host must be > 0")
	}
	if c.PDF.MaxConcurrent < 1 {
		return fmt.Errorf("pdf.max_concurrent must be >= 1")
	}
	if c.Headless.MaxPoolSize < 1 || c.Headless.MaxPoolSize > 64 {
		return fmt.Errorf("headless.max_pool_size must be in [1,64], got %d", c.Headless.MaxPoolSize)
	}
	if c.Memory.GlobalMemoryLimitMB < 256 {
		return fmt.Errorf("memory.global_memory_limit_mb must be >= 256MB")
	}
	if c.Memory.PressureThreshold <= 0 || c.Memory.PressureThreshold > 1 {
		return fmt.Errorf("memory.pressure_threshold must be in (0,1]")
	}
	switch c.Spider.Strategy {
	case "breadth_first", "depth_first", "best_first":
	default:
		return fmt.Errorf("spider.strategy must be one of breadth_first|depth_first|best_first, got %q", c.Spider.Strategy)
	}
	switch c.Stealth.Preset {
	case "none", "low", "medium", "high":
	default:
		return fmt.Errorf("stealth.preset must be one of none|low|medium|high, got %q", c.Stealth.Preset)
	}
	return nil
}

// Load reads configPath (or searches ./configs, ".", and ~/.crawlkit),
// applies defaults, unmarshals and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".crawlkit"))
		}
	}

	v.SetEnvPrefix("CRAWLKIT")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.max_concurrency", 16)
	v.SetDefault("pipeline.cache_ttl", 3600)
	v.SetDefault("pipeline.cache_mode", "normal")
	v.SetDefault("pipeline.gate_hi_threshold", 0.7)
	v.SetDefault("pipeline.gate_lo_threshold", 0.3)

	v.SetDefault("rate_limiting.requests_per_second_per_host", 2.0)
	v.SetDefault("rate_limiting.burst_size", 4)

	v.SetDefault("pdf.max_concurrent", 2)

	v.SetDefault("headless.max_pool_size", 3)
	v.SetDefault("headless.min_pool_size", 1)
	v.SetDefault("headless.nav_timeout_seconds", 30)

	v.SetDefault("memory.global_memory_limit_mb", 2048)
	v.SetDefault("memory.pressure_threshold", 0.8)
	v.SetDefault("memory.gc_threshold", 0.9)

	v.SetDefault("spider.strategy", "best_first")
	v.SetDefault("spider.max_depth", 3)
	v.SetDefault("spider.max_pages", 1000)
	v.SetDefault("spider.respect_robots", true)
	v.SetDefault("spider.follow_redirects", true)

	v.SetDefault("stealth.preset", "low")

	v.SetDefault("query.query_foraging", false)
	v.SetDefault("query.target_query", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.domain_separation", true)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.batch_concurrency", 8)
	v.SetDefault("http.sse_retry_ms", 3000)
}
