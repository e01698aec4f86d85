package core

import "context"

// Storage is the durable collaborator behind the context manager. The core
// never assumes a wire or file format; encoding is the implementation's
// concern. Failures are returned wrapped with the failing operation, never
// swallowed.
type Storage interface {
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)
	AddMessage(ctx context.Context, sessionID string, msg Message) error
	UpdateMessage(ctx context.Context, sessionID, messageID string, update MessageUpdate) error
	DeleteMessage(ctx context.Context, sessionID, messageID string) error
	GetSummary(ctx context.Context, sessionID string) (string, error)
	SetSummary(ctx context.Context, sessionID, summary string) error
	ClearSession(ctx context.Context, sessionID string) error
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// MessageUpdate is a partial update; nil fields are left untouched.
type MessageUpdate struct {
	Pinned     *bool
	Importance *float64
}

// Summarizer condenses a batch of messages into a short digest. The context
// manager treats a nil Summarizer as "summarization disabled".
type Summarizer interface {
	Summarize(messages []Message) string
	SummarizeForContext(messages []Message) string
}
