package scorer

import (
	"math"
	"net/url"
	"strings"
)

// depthDecay matches spec §4.7's fixed constant: depth score = exp(-0.3*depth).
const depthDecay = 0.3

// hostMatchBonus rewards a query term appearing in the host itself, on
// top of path relevance.
const hostMatchBonus = 0.25

// DepthScore is exp(-depthDecay * depth), decaying as the crawl goes deeper.
func DepthScore(depth int) float64 {
	return math.Exp(-depthDecay * float64(depth))
}

// PathRelevance is the fraction of query terms appearing in the URL's
// path and host, weighting earlier path segments more heavily and adding
// a flat bonus when the host itself matches a query term.
func PathRelevance(rawURL string, queryTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var total float64
	for _, qt := range queryTokens {
		var best float64
		for i, seg := range segments {
			if strings.Contains(strings.ToLower(seg), qt) {
				weight := 1.0 / float64(i+1) // earlier segments weigh more
				if weight > best {
					best = weight
				}
			}
		}
		if strings.Contains(host, qt) {
			best += hostMatchBonus
		}
		if best > 1 {
			best = 1
		}
		total += best
	}
	return total / float64(len(queryTokens))
}

// URLSignalScore combines depth and path-relevance with equal weight, per
// spec §4.7 ("combined with equal weight").
func URLSignalScore(rawURL string, depth int, queryTokens []string) float64 {
	return 0.5*DepthScore(depth) + 0.5*PathRelevance(rawURL, queryTokens)
}

// domainDiversitySteepness and domainDiversityZeroBonus parameterize the
// sigmoid in DomainDiversity; the spec names the shape (sigmoid of
// -(c/N)*10, bonus at c=0) without pinning a steepness constant, so 10 is
// taken directly from the formula spec.md gives.
const domainDiversitySteepness = 10.0
const domainDiversityZeroBonus = 0.2

// DomainDiversity rewards URLs from domains the frontier has visited
// rarely relative to the total pages seen, per spec §4.7.
func DomainDiversity(domainCount, totalPages int) float64 {
	if totalPages <= 0 {
		return 1
	}
	ratio := float64(domainCount) / float64(totalPages)
	score := sigmoid(-ratio * domainDiversitySteepness)
	if domainCount == 0 {
		score += domainDiversityZeroBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Jaccard is the set-similarity of document and query token sets, per
// spec §4.7's content-similarity sub-score.
func Jaccard(docTokens, queryTokens []string) float64 {
	docSet := TokenSet(docTokens)
	querySet := TokenSet(queryTokens)
	if len(docSet) == 0 && len(querySet) == 0 {
		return 0
	}
	intersection := 0
	for t := range querySet {
		if _, ok := docSet[t]; ok {
			intersection++
		}
	}
	union := len(docSet)
	for t := range querySet {
		if _, ok := docSet[t]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
