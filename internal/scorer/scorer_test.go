package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeLowercasesAndDropsShortRuns(t *testing.T) {
	got := Tokenize("The Go Gopher runs at 10x speed, ok?")
	assert.Equal(t, []string{"the", "gopher", "runs", "10x", "speed"}, got)
}

func TestBM25ScoreHigherForMoreFrequentQueryTerms(t *testing.T) {
	corpus := NewBM25Corpus(DefaultBM25Params())
	corpus.Update(Tokenize("golang concurrency patterns channels goroutines"))
	corpus.Update(Tokenize("python web scraping beautifulsoup requests"))

	query := Tokenize("golang concurrency")
	goDoc := Tokenize("golang concurrency concurrency concurrency goroutines channels")
	pyDoc := Tokenize("python web scraping beautifulsoup requests")

	goScore := corpus.Score(goDoc, query)
	pyScore := corpus.Score(pyDoc, query)
	assert.Greater(t, goScore, pyScore)
}

func TestDepthScoreDecaysWithDepth(t *testing.T) {
	assert.Equal(t, 1.0, DepthScore(0))
	assert.Less(t, DepthScore(5), DepthScore(1))
}

func TestPathRelevanceFavorsMatchingSegmentsAndHost(t *testing.T) {
	tokens := []string{"golang", "tutorial"}
	matching := PathRelevance("https://golang.example/tutorial/basics", tokens)
	unrelated := PathRelevance("https://other.example/misc/page", tokens)
	assert.Greater(t, matching, unrelated)
}

func TestDomainDiversityFavorsUnseenDomains(t *testing.T) {
	unseen := DomainDiversity(0, 100)
	seenMany := DomainDiversity(50, 100)
	assert.Greater(t, unseen, seenMany)
}

func TestJaccardSimilarity(t *testing.T) {
	doc := []string{"golang", "concurrency", "channels"}
	query := []string{"golang", "concurrency"}
	sim := Jaccard(doc, query)
	assert.InDelta(t, 2.0/3.0, sim, 0.001)
}

func TestScoreRequestIsNeutralWhenDisabled(t *testing.T) {
	s := New(DefaultConfig())
	got := s.ScoreRequest("https://a.example/page", 1, "a.example", "some text")
	assert.Equal(t, 1.0, got)
}

func TestScoreRequestReflectsQueryRelevanceWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.TargetQuery = "golang concurrency"
	s := New(cfg)

	s.UpdateWithResult("a.example", "golang concurrency patterns with goroutines")
	s.UpdateWithResult("b.example", "cooking recipes for beginners")

	relevant := s.ScoreRequest("https://a.example/golang", 1, "a.example", "golang concurrency goroutines channels")
	irrelevant := s.ScoreRequest("https://b.example/recipes", 1, "b.example", "cooking recipes for beginners")

	assert.Greater(t, relevant, irrelevant)
}

func TestCheckEarlyStopFiresBelowThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.TargetQuery = "golang"
	cfg.EarlyStopWindow = 3
	cfg.MinRelevanceThreshold = 0.5
	s := New(cfg)

	for i := 0; i < 3; i++ {
		s.ScoreRequest("https://unrelated.example/x", 5, "unrelated.example", "nothing relevant here at all")
	}

	signal := s.CheckEarlyStop()
	require.True(t, signal.Stop)
	assert.NotEmpty(t, signal.Reason)
}

func TestCheckEarlyStopWaitsForFullWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.EarlyStopWindow = 5
	s := New(cfg)

	s.ScoreRequest("https://a.example", 0, "a.example", "text")
	signal := s.CheckEarlyStop()
	assert.False(t, signal.Stop, "ring buffer not yet full must not trigger early stop")
}
