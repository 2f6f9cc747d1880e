package pipeline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webforge/crawlkit/internal/models"
)

// Gate decision weighting constants. The spec leaves the exact
// combination function open; these weights and the SPA-marker list
// are fixed locally rather than pulled from config, since they encode
// a heuristic rather than an operational tunable.
const (
	weightScriptRatio  = 0.35
	weightSPAMarker    = 0.25
	weightNoscript     = -0.15 // presence of noscript fallback lowers the score, nudging toward headless
	weightMetaRefresh  = 0.10
	weightTextDensity  = 0.30
	minProbeTextLength = 200 // chars; probes_first falls back to headless below this
)

var spaRootMarkers = []string{`id="app"`, `id="root"`, `id="__next"`, `ng-app`, `data-reactroot`}

var metaRefreshRegexp = regexp.MustCompile(`(?i)<meta[^>]+http-equiv=["']?refresh["']?[^>]*>`)

// Score computes the gate score from the raw HTML, per spec §4.5 step
// 4: HTML size, script-to-content ratio, SPA markers, noscript
// presence, meta-refresh, and text/tag density. Result is clamped to
// [0,1], where higher favors the static `raw` path.
func Score(html string) float64 {
	lower := strings.ToLower(html)
	size := len(html)
	if size == 0 {
		return 0
	}

	scriptLen := sumTagContentLength(lower, "<script", "</script>")
	scriptRatio := float64(scriptLen) / float64(size)
	scriptScore := clamp01(1 - scriptRatio*3) // heavily scripted pages push toward headless

	hasSPAMarker := 0.0
	for _, marker := range spaRootMarkers {
		if strings.Contains(lower, marker) {
			hasSPAMarker = 1.0
			break
		}
	}
	spaScore := 1 - hasSPAMarker

	noscriptScore := 0.0
	if strings.Contains(lower, "<noscript") {
		noscriptScore = 1.0
	}

	refreshScore := 0.0
	if metaRefreshRegexp.MatchString(html) {
		refreshScore = 0.0 // a refresh redirect usually means content isn't in the initial HTML
	} else {
		refreshScore = 1.0
	}

	textDensity := estimateTextDensity(html)

	score := weightScriptRatio*scriptScore +
		weightSPAMarker*spaScore +
		weightNoscript*noscriptScore +
		weightMetaRefresh*refreshScore +
		weightTextDensity*textDensity

	return clamp01(score)
}

// Decide maps a gate score to a path per the hi/lo thresholds.
func Decide(score, hiThreshold, loThreshold float64) models.GateDecision {
	switch {
	case score >= hiThreshold:
		return models.GateRaw
	case score <= loThreshold:
		return models.GateHeadless
	default:
		return models.GateProbesFirst
	}
}

// NeedsHeadlessFallback reports whether a probes_first static
// extraction yielded too little text and must escalate to headless.
// The spec is explicit this only ever happens static->headless, never
// the reverse.
func NeedsHeadlessFallback(extractedTextLen int) bool {
	return extractedTextLen < minProbeTextLength
}

func sumTagContentLength(lowerHTML, openTag, closeTag string) int {
	total := 0
	idx := 0
	for {
		start := strings.Index(lowerHTML[idx:], openTag)
		if start == -1 {
			break
		}
		start += idx
		tagEnd := strings.Index(lowerHTML[start:], ">")
		if tagEnd == -1 {
			break
		}
		contentStart := start + tagEnd + 1
		end := strings.Index(lowerHTML[contentStart:], closeTag)
		if end == -1 {
			break
		}
		total += end
		idx = contentStart + end + len(closeTag)
	}
	return total
}

// estimateTextDensity uses goquery to strip tags and compare visible
// text length against raw markup length, the same DOM-traversal
// library the pack's crawlers use for extraction (codepr-webcrawler,
// rohmanhakim-docs-crawler).
func estimateTextDensity(html string) float64 {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0.5
	}
	text := doc.Find("body").Text()
	textLen := len(strings.TrimSpace(text))
	if len(html) == 0 {
		return 0
	}
	ratio := float64(textLen) / float64(len(html))
	return clamp01(ratio * 4) // typical article pages sit around 20-30% text density
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
