package summary

import "regexp"

var (
	nameRe     = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	currencyRe = regexp.MustCompile(`(?i)([$€£]\s?\d[\d,]*(\.\d+)?|\b\d[\d,]*\s?(dollars|euros|pounds|usd|eur|gbp)\b)`)
	emailRe    = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`)
	monthDayRe = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(st|nd|rd|th)?\b`)
)

// extractEntities pulls proper-noun-like names, currency amounts, emails and
// month-day dates out of text, deduplicated in first-seen order.
func extractEntities(text string) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(matches []string) {
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	add(nameRe.FindAllString(text, -1))
	add(currencyRe.FindAllString(text, -1))
	add(emailRe.FindAllString(text, -1))
	add(monthDayRe.FindAllString(text, -1))

	return out
}
