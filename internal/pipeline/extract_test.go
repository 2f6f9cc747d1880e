package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webforge/crawlkit/internal/llm"
)

type fakeLLMProvider struct{ response string }

func (f *fakeLLMProvider) Name() string { return "fake" }
func (f *fakeLLMProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	return llm.CompletionResponse{Text: f.response}, nil
}
func (f *fakeLLMProvider) Embed(ctx context.Context, req llm.EmbedRequest) (llm.EmbedResponse, error) {
	return llm.EmbedResponse{}, nil
}
func (f *fakeLLMProvider) Capabilities() llm.Capabilities { return llm.Capabilities{SupportsCompletion: true} }
func (f *fakeLLMProvider) EstimateCost(tokens int) float64 { return 0 }
func (f *fakeLLMProvider) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLMProvider) IsAvailable() bool { return true }

const sampleArticleHTML = `<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Real Title">
<meta name="author" content="Jane Doe">
</head><body>
<article><p>This is the first sentence. This is the second sentence!</p></article>
<a href="/next">Next page</a>
<img src="/pic.png" alt="a picture" width="100" height="50">
</body></html>`

func TestExtractCSSPullsMetadataLinksAndMedia(t *testing.T) {
	e := NewExtractor(nil)
	doc, err := e.Extract(ExtractionStrategy{Kind: StrategyCSS}, sampleArticleHTML, "https://example.com/page")
	require.NoError(t, err)

	require.Equal(t, "Real Title", doc.Title)
	require.Equal(t, "Jane Doe", doc.Byline)
	require.Contains(t, doc.Text, "first sentence")
	require.Len(t, doc.Links, 1)
	require.Equal(t, "https://example.com/next", doc.Links[0].URL)
	require.Len(t, doc.Media, 1)
	require.Equal(t, 100, doc.Media[0].Width)
}

func TestExtractAttachesParsedTables(t *testing.T) {
	html := `<html><body>
<article><p>This is the first sentence. This is the second sentence!</p></article>
<table><thead><tr><th>Name</th><th>Age</th></tr></thead>
<tbody><tr><td>Alice</td><td>30</td></tr></tbody></table>
</body></html>`

	e := NewExtractor(nil)
	doc, err := e.Extract(ExtractionStrategy{Kind: StrategyCSS}, html, "https://example.com")
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	require.Equal(t, 1, doc.Tables[0].Summary.HeaderRowCount)
}

func TestExtractFailsOnEmptyText(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(ExtractionStrategy{Kind: StrategyCSS, CSSSelectors: map[string]string{"body": "nonexistent"}}, "<html><body></body></html>", "https://example.com")
	require.Error(t, err)
}

func TestExtractRegexStrategy(t *testing.T) {
	e := NewExtractor(nil)
	doc, err := e.Extract(ExtractionStrategy{Kind: StrategyRegex, RegexPattern: `\d+`}, "price: 42 qty: 7", "https://example.com")
	require.NoError(t, err)
	require.Contains(t, doc.Text, "42")
	require.Contains(t, doc.Text, "7")
}

func TestExtractWithLLMParsesTitleAndBodyFromProvider(t *testing.T) {
	pool := llm.NewPool(llm.DefaultConfig())
	pool.AddProvider(&fakeLLMProvider{response: "TITLE: A Report\nBODY: The findings are summarized here."})

	doc, err := ExtractWithLLM(context.Background(), pool, ExtractionStrategy{Kind: StrategyLLM}, "<html><body></body></html>", "https://example.com")
	require.NoError(t, err)
	require.Equal(t, "A Report", doc.Title)
	require.Contains(t, doc.Text, "findings are summarized")
}

func TestParseStrategyKindAcceptsKnownValues(t *testing.T) {
	kind, err := ParseStrategyKind("trek")
	require.NoError(t, err)
	require.Equal(t, StrategyTrek, kind)

	kind, err = ParseStrategyKind("")
	require.NoError(t, err)
	require.Equal(t, StrategyCSS, kind)
}

func TestParseStrategyKindRejectsUnknownValue(t *testing.T) {
	_, err := ParseStrategyKind("xml")
	require.Error(t, err)
}
