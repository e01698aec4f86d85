package summary

import (
	"sort"
	"strings"

	"github.com/sandevgo/recall/internal/core"
)

const defaultMaxSentences = 5

// Summarizer produces extractive digests of message batches. It never calls a
// model: the top-scored sentences are lifted verbatim, re-sorted back to
// their original order so the digest reads coherently rather than as a
// ranked list.
type Summarizer struct {
	maxSentences int
}

func NewSummarizer() *Summarizer {
	return &Summarizer{maxSentences: defaultMaxSentences}
}

func (s *Summarizer) Summarize(messages []core.Message) string {
	sentences := collectSentences(messages, "")
	picked := s.topSentences(sentences)
	if len(picked) == 0 {
		return ""
	}

	body := joinSentences(picked)

	var full strings.Builder
	if entities := extractEntities(allContent(messages)); len(entities) > 0 {
		full.WriteString("Key details: ")
		full.WriteString(strings.Join(entities, ", "))
		full.WriteString(". ")
	}
	full.WriteString(body)

	return full.String()
}

// SummarizeForContext structures the digest by speaker, the shape the
// orchestrator injects as a synthetic system message.
func (s *Summarizer) SummarizeForContext(messages []core.Message) string {
	userPart := joinSentences(s.topSentences(collectSentences(messages, core.RoleUser)))
	assistantPart := joinSentences(s.topSentences(collectSentences(messages, core.RoleAssistant)))

	var b strings.Builder
	if userPart != "" {
		b.WriteString("User mentioned: ")
		b.WriteString(userPart)
	}
	if assistantPart != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("Assistant provided: ")
		b.WriteString(assistantPart)
	}
	return b.String()
}

// collectSentences gathers scored sentences from messages, optionally
// filtered to one role. Position preserves original reading order.
func collectSentences(messages []core.Message, role string) []sentence {
	var texts []string
	for _, m := range messages {
		if role != "" && m.Role != role {
			continue
		}
		if m.Role == core.RoleFunction || m.Role == core.RoleTool {
			continue
		}
		texts = append(texts, splitSentences(m.Content)...)
	}

	out := make([]sentence, len(texts))
	for i, t := range texts {
		out[i] = sentence{text: t, position: i, score: scoreSentence(t, texts)}
	}
	return out
}

func (s *Summarizer) topSentences(all []sentence) []sentence {
	if len(all) == 0 {
		return nil
	}

	ranked := make([]sentence, len(all))
	copy(ranked, all)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := s.maxSentences
	if n > len(ranked) {
		n = len(ranked)
	}
	picked := ranked[:n]

	// back to original order for readability
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].position < picked[j].position
	})
	return picked
}

func joinSentences(picked []sentence) string {
	if len(picked) == 0 {
		return ""
	}
	parts := make([]string, len(picked))
	for i, sn := range picked {
		parts[i] = strings.TrimRight(sn.text, ".!? ")
	}
	return strings.Join(parts, ". ") + "."
}

func allContent(messages []core.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Role == core.RoleFunction || m.Role == core.RoleTool {
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
