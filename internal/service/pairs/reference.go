package pairs

import "regexp"

// Reference patterns are a fixed set: a message "references" earlier
// conversation when it points back at something the model already said.
var (
	numberedRe      = regexp.MustCompile(`(?i)\b(step|option|number|point|item)\s*#?\d+\b`)
	ordinalRe       = regexp.MustCompile(`(?i)\bthe\s+(first|second|third|fourth|fifth|last)\s*(one|option|choice|step|item)?\b`)
	demonstrativeRe = regexp.MustCompile(`(?i)\b(that|this)\s+(approach|option|idea|method|solution|plan|suggestion|one|way)\b`)
	explicitRe      = regexp.MustCompile(`(?i)\b(you (mentioned|said|suggested|recommended|listed)|as you said|earlier you)\b`)
	continuationRe  = regexp.MustCompile(`(?i)\b(tell me more|more about (it|that|this)|go on|keep going|continue|elaborate|expand on)\b`)
	comparisonRe    = regexp.MustCompile(`(?i)\b(the other (one|option|choice)|instead of (that|this|it)|compared to (that|this|it)|rather than (that|this|it)|versus)\b`)

	referencePatterns = []*regexp.Regexp{
		numberedRe,
		ordinalRe,
		demonstrativeRe,
		explicitRe,
		continuationRe,
		comparisonRe,
	}

	// enumeratedRe spots replies that lay out choices: numbered or bulleted
	// lines, or explicit step/option markers.
	enumeratedRe = regexp.MustCompile(`(?mi)(^\s*\d+[.)]\s|^\s*[-*]\s|\b(step|option)\s+\d+\b)`)
)

// DetectReference reports whether text points back at earlier conversation.
func DetectReference(text string) bool {
	for _, re := range referencePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func hasEnumeration(text string) bool {
	return enumeratedRe.MatchString(text)
}
