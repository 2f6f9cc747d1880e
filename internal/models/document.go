package models

import (
	"time"

	"github.com/webforge/crawlkit/internal/tables"
)

// GateDecision tags which extraction path the pipeline chose for a URL.
type GateDecision string

const (
	GateRaw         GateDecision = "raw"          // static HTML was good enough
	GateProbesFirst GateDecision = "probes_first" // tried static, may fall back
	GateHeadless    GateDecision = "headless"     // rendered with a browser
	GateCached      GateDecision = "cached"       // served from the result cache
)

// Link is an anchor discovered during extraction, resolved against the
// document's base URL.
type Link struct {
	URL      string
	Text     string
	Rel      string
	NoFollow bool
}

// Media is an image/video/audio element discovered during extraction.
type Media struct {
	URL     string
	Kind    string // "image" | "video" | "audio"
	Alt     string
	Title   string
	Width   int
	Height  int
}

// ExtractedDoc is the structured result of running an ExtractionStrategy
// plus metadata/link/media extraction over a fetched page.
//
// Invariant (spec §3): Text is non-empty whenever extraction succeeds;
// QualityScore is monotonic in completeness (see internal/pipeline/quality.go).
type ExtractedDoc struct {
	URL             string
	Title           string
	Text            string // required: main article text
	Markdown        string
	HTML            string
	Byline          string
	PublishedAt     *time.Time
	Language        string
	WordCount       int
	ReadingTimeSecs int
	QualityScore    float64 // in [0, 1]
	Links           []Link
	Media           []Media
	ParserMetadata  map[string]string
	Tables          []*tables.Table // structured <table> content, parsed best-effort
}

// PipelineResult is what C6 (Gate & Pipeline) returns for a single URL.
type PipelineResult struct {
	URL            string
	StatusCode     int
	GateDecision   GateDecision
	QualityScore   float64
	ProcessingTime time.Duration
	CacheKey       string
	Document       *ExtractedDoc
	FromCache      bool
}

// ChunkingConfig parameterizes Chunk; chunking is a pure function of
// (text, ChunkingConfig) per spec invariant 5.
type ChunkingConfig struct {
	MaxTokens      int
	OverlapTokens  int
	Deterministic  bool
}

// Chunk is a content fragment produced by splitting an ExtractedDoc's text
// according to a ChunkingConfig.
type Chunk struct {
	Index        int
	ByteStart    int
	ByteEnd      int
	CharStart    int
	CharEnd      int
	TokenEstimate int
	QualitySub   float64
	Text         string
}
