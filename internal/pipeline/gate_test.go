package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webforge/crawlkit/internal/models"
)

func TestScoreFavorsStaticForTextHeavyPage(t *testing.T) {
	html := `<html><body><article>` + strings.Repeat("word ", 200) + `</article></body></html>`
	score := Score(html)
	require.Greater(t, score, 0.5)
}

func TestScoreFavorsHeadlessForSPAShell(t *testing.T) {
	html := `<html><body><div id="app"></div><script>` + strings.Repeat("x=1;", 500) + `</script></body></html>`
	score := Score(html)
	require.Less(t, score, 0.5)
}

func TestDecideBands(t *testing.T) {
	require.Equal(t, models.GateRaw, Decide(0.9, 0.7, 0.3))
	require.Equal(t, models.GateHeadless, Decide(0.1, 0.7, 0.3))
	require.Equal(t, models.GateProbesFirst, Decide(0.5, 0.7, 0.3))
}

func TestNeedsHeadlessFallback(t *testing.T) {
	require.True(t, NeedsHeadlessFallback(10))
	require.False(t, NeedsHeadlessFallback(500))
}
