package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webforge/crawlkit/internal/models"
)

func TestQualityScoreMonotonicInCompleteness(t *testing.T) {
	sparse := &models.ExtractedDoc{Text: "short text.", WordCount: 2}
	published := time.Now()
	rich := &models.ExtractedDoc{
		Title:          "A title",
		Byline:         "Author",
		PublishedAt:    &published,
		Language:       "en",
		ParserMetadata: map[string]string{"x": "y"},
		Text:           strings.Repeat("word. ", 300),
		WordCount:      600,
		Links:          []models.Link{{URL: "https://a"}},
		Media:          []models.Media{{URL: "https://a/img.png"}},
	}

	require.Greater(t, QualityScore(rich), QualityScore(sparse))
	require.GreaterOrEqual(t, QualityScore(sparse), 0.0)
	require.LessOrEqual(t, QualityScore(rich), 1.0)
}

func TestIsArticleLike(t *testing.T) {
	require.False(t, IsArticleLike(&models.ExtractedDoc{WordCount: 10, Text: "x"}))
	require.True(t, IsArticleLike(&models.ExtractedDoc{WordCount: 200, Text: strings.Repeat("x ", 200)}))
}
