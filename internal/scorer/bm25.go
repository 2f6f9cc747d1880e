package scorer

import "math"

// BM25Params holds the standard Okapi BM25 tuning constants. k1 controls
// term-frequency saturation, b controls document-length normalization.
// No BM25 implementation exists anywhere in the pack, so this is
// hand-rolled against the textbook formula rather than grounded on a
// specific example file.
type BM25Params struct {
	K1 float64
	B  float64
}

func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.2, B: 0.75}
}

// BM25Corpus is the incrementally updated state §4.7's update_with_result
// needs: document frequency per term and running average document length.
type BM25Corpus struct {
	params      BM25Params
	docFreq     map[string]int
	docCount    int
	totalLength int
}

func NewBM25Corpus(params BM25Params) *BM25Corpus {
	return &BM25Corpus{params: params, docFreq: make(map[string]int)}
}

// Update folds one more document's tokens into the corpus: document
// frequency per distinct term, and the running document-count/length
// totals behind AverageDocLength.
func (c *BM25Corpus) Update(docTokens []string) {
	seen := make(map[string]struct{})
	for _, t := range docTokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		c.docFreq[t]++
	}
	c.docCount++
	c.totalLength += len(docTokens)
}

func (c *BM25Corpus) AverageDocLength() float64 {
	if c.docCount == 0 {
		return 0
	}
	return float64(c.totalLength) / float64(c.docCount)
}

// idf is the BM25 inverse-document-frequency term, floored at a small
// positive epsilon so a term present in every document doesn't drive the
// score negative.
func (c *BM25Corpus) idf(term string) float64 {
	n := float64(c.docCount)
	if n == 0 {
		return 0
	}
	df := float64(c.docFreq[term])
	v := math.Log(1 + (n-df+0.5)/(df+0.5))
	if v < 1e-9 {
		return 1e-9
	}
	return v
}

// Score computes the BM25 score of docTokens against queryTokens. Must be
// called after at least one Update so AverageDocLength is meaningful; an
// empty corpus scores 0.
func (c *BM25Corpus) Score(docTokens, queryTokens []string) float64 {
	if c.docCount == 0 || len(docTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}
	termFreq := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		termFreq[t]++
	}
	docLen := float64(len(docTokens))
	avgLen := c.AverageDocLength()

	var score float64
	for _, qt := range queryTokens {
		tf := float64(termFreq[qt])
		if tf == 0 {
			continue
		}
		idf := c.idf(qt)
		numerator := tf * (c.params.K1 + 1)
		denominator := tf + c.params.K1*(1-c.params.B+c.params.B*(docLen/avgLen))
		score += idf * (numerator / denominator)
	}
	return score
}
