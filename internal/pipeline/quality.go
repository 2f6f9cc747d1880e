package pipeline

import (
	"strings"

	"github.com/webforge/crawlkit/internal/models"
)

// sentence-ending punctuation used by the content-length/sentence-count
// bucket; a crude approximation deliberately kept simple since the
// spec only calls for "sentence count", not full sentence boundary
// detection.
var sentenceEnders = []string{".", "!", "?"}

// QualityScore implements spec §4.5 step 6: metadata completeness
// (≤40%), content length + sentence count (≤40%), structure (≤20%),
// normalized to [0,1]. Monotonic in completeness per the data model
// invariant on ExtractedDoc.QualityScore.
func QualityScore(doc *models.ExtractedDoc) float64 {
	metadataScore := metadataCompleteness(doc) * 0.40
	contentScore := contentLengthScore(doc) * 0.40
	structureScore := structureScore(doc) * 0.20
	return clamp01(metadataScore + contentScore + structureScore)
}

func metadataCompleteness(doc *models.ExtractedDoc) float64 {
	fields := []bool{
		doc.Title != "",
		doc.Byline != "",
		doc.PublishedAt != nil,
		doc.Language != "",
		len(doc.ParserMetadata) > 0,
	}
	present := 0
	for _, ok := range fields {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}

func contentLengthScore(doc *models.ExtractedDoc) float64 {
	lengthScore := bucketize(doc.WordCount, []int{50, 150, 400, 1000})
	sentences := countSentences(doc.Text)
	sentenceScore := bucketize(sentences, []int{2, 5, 15, 40})
	return (lengthScore + sentenceScore) / 2
}

func structureScore(doc *models.ExtractedDoc) float64 {
	isArticle := 0.0
	if doc.WordCount > 150 {
		isArticle = 1.0
	}
	hasLinks := 0.0
	if len(doc.Links) > 0 {
		hasLinks = 1.0
	}
	hasMedia := 0.0
	if len(doc.Media) > 0 {
		hasMedia = 1.0
	}
	return (isArticle + hasLinks + hasMedia) / 3
}

// bucketize maps count into [0,1] across ascending thresholds: up to
// the first threshold it scales linearly from 0 to 0.25, each later
// bucket adds another 0.25 interpolated linearly within the bucket,
// and counts above the last threshold score 1.
func bucketize(count int, thresholds []int) float64 {
	if count <= thresholds[0] {
		return float64(count) / float64(thresholds[0]) * 0.25
	}
	for i := 1; i < len(thresholds); i++ {
		if count <= thresholds[i] {
			span := float64(thresholds[i] - thresholds[i-1])
			pos := float64(count-thresholds[i-1]) / span
			return 0.25*float64(i) + 0.25*pos
		}
	}
	return 1.0
}

func countSentences(text string) int {
	count := 0
	for _, r := range text {
		for _, ender := range sentenceEnders {
			if string(r) == ender {
				count++
				break
			}
		}
	}
	return count
}

// IsArticleLike is a convenience predicate: more than 150 words and
// non-blank text. The structure sub-score applies its own word-count
// check and does not call it.
func IsArticleLike(doc *models.ExtractedDoc) bool {
	return doc.WordCount > 150 && strings.TrimSpace(doc.Text) != ""
}
