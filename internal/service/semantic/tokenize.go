package semantic

import (
	"regexp"
	"strings"
)

var nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "has": {}, "his": {}, "him": {},
	"she": {}, "how": {}, "its": {}, "may": {}, "who": {}, "did": {},
	"get": {}, "let": {}, "say": {}, "too": {}, "use": {}, "that": {},
	"this": {}, "with": {}, "they": {}, "have": {}, "from": {}, "what": {},
	"your": {}, "when": {}, "will": {}, "there": {}, "their": {},
	"would": {}, "could": {}, "should": {}, "about": {}, "which": {},
	"them": {}, "then": {}, "than": {}, "been": {}, "were": {}, "into": {},
	"some": {}, "just": {}, "also": {}, "very": {}, "here": {}, "more": {},
	"does": {}, "please": {}, "want": {}, "need": {}, "like": {},
}

// tokenize lowercases, strips non-word characters and drops stop words and
// tokens of length <= 2.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	parts := nonWordRe.Split(lowered, -1)

	tokens := make([]string, 0, len(parts))
	for _, t := range parts {
		if len(t) <= 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// termFrequencies returns term counts normalized by the max count within the
// document.
func termFrequencies(tokens []string) map[string]float64 {
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tokens))
	maxCount := 0
	for _, t := range tokens {
		counts[t]++
		if counts[t] > maxCount {
			maxCount = counts[t]
		}
	}

	tf := make(map[string]float64, len(counts))
	for term, n := range counts {
		tf[term] = float64(n) / float64(maxCount)
	}
	return tf
}
