package summary

import (
	"regexp"
	"strings"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+`)
	digitRe         = regexp.MustCompile(`\d`)
	capitalizedRe   = regexp.MustCompile(`\s[A-Z][a-z]+`)
	wordRe          = regexp.MustCompile(`[a-zA-Z0-9']+`)
)

// domainKeywords are the signals the selection engine cares about retaining:
// money, preferences, schedule, identity, commitments.
var domainKeywords = []string{
	"budget", "price", "cost", "pay", "spend",
	"prefer", "preference", "favorite", "important", "remember",
	"deadline", "date", "schedule", "appointment", "book", "booked", "confirm",
	"email", "phone", "address", "name",
	"decision", "agreed", "plan",
}

type sentence struct {
	text     string
	position int
	score    float64
}

// splitSentences breaks text on terminal punctuation. Fragments shorter than
// a few words carry no summary value and are dropped.
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 10 {
			out = append(out, p)
		}
	}
	return out
}

// scoreSentence combines length, domain keywords, digits, proper-noun-like
// tokens and centrality (mean Jaccard similarity to the rest of the batch, a
// cheap stand-in for TextRank).
func scoreSentence(s string, all []string) float64 {
	words := wordRe.FindAllString(s, -1)

	lengthScore := float64(len(words)) / 20.0
	if lengthScore > 1.0 {
		lengthScore = 1.0
	}

	lowered := strings.ToLower(s)
	keywordScore := 0.0
	for _, kw := range domainKeywords {
		if strings.Contains(lowered, kw) {
			keywordScore += 0.2
		}
	}
	if keywordScore > 1.0 {
		keywordScore = 1.0
	}

	digitScore := 0.0
	if digitRe.MatchString(s) {
		digitScore = 1.0
	}

	properScore := 0.0
	if capitalizedRe.MatchString(s) {
		properScore = 1.0
	}

	return 0.2*lengthScore + 0.3*keywordScore + 0.15*digitScore + 0.1*properScore + 0.25*centrality(s, all)
}

// centrality is the mean Jaccard similarity between a sentence's word set and
// every other sentence in the batch.
func centrality(s string, all []string) float64 {
	if len(all) <= 1 {
		return 0
	}

	self := wordSet(s)
	total := 0.0
	for _, other := range all {
		if other == s {
			continue
		}
		total += jaccard(self, wordSet(other))
	}
	return total / float64(len(all)-1)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
