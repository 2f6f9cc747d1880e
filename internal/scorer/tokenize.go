package scorer

import "strings"

// Tokenize implements spec §4.7's tokenization rule: lowercase, split on
// whitespace, keep alphanumeric runs longer than two characters. No
// stemming; codepr-webcrawler's snowball-stemmed bag of words isn't used
// here because the spec's rule is explicit and stemming would change
// scoring semantics it pins down.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		run := make([]rune, 0, len(field))
		for _, r := range field {
			if isAlnum(r) {
				run = append(run, r)
			} else if len(run) > 2 {
				tokens = append(tokens, string(run))
				run = run[:0]
			} else {
				run = run[:0]
			}
		}
		if len(run) > 2 {
			tokens = append(tokens, string(run))
		}
	}
	return tokens
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z')
}

// TokenSet converts a token slice to a deduplicated set, used by Jaccard
// similarity and path-term matching.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
