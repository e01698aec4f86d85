package core

import "time"

const (
	RecallName    = "Recall"
	RecallVersion = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
	RoleTool      = "tool"
)

type Message struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Pinned     bool           `json:"pinned,omitempty"`
	Importance *float64       `json:"importance,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ExplicitImportance returns the importance set at creation, if any. Absence
// is not the same as zero: the scorer treats absence as "compute it" and
// presence as authoritative.
func (m Message) ExplicitImportance() (float64, bool) {
	if m.Importance == nil {
		return 0, false
	}
	return *m.Importance, true
}

// ScoredMessage pairs a message with a derived score for the duration of one
// selection pass. It is never persisted.
type ScoredMessage struct {
	Message Message
	Score   float64
}

// ContextOptions controls a single GetContext call.
type ContextOptions struct {
	MaxTokens           int
	CurrentQuery        string
	ImportanceThreshold float64
}

// ContextResult is what GetContext hands back to the caller. Messages are in
// chronological order and their combined estimated size never exceeds the
// requested MaxTokens.
type ContextResult struct {
	Messages      []Message `json:"messages"`
	TokenCount    int       `json:"token_count"`
	MessageCount  int       `json:"message_count"`
	WasSummarized bool      `json:"was_summarized"`
	PinnedCount   int       `json:"pinned_count"`
}

// TokenCounter estimates the model-token cost of a piece of text. Counts are
// an approximation contract (>= 0), not a promise of provider-exact numbers.
type TokenCounter func(text string) int
