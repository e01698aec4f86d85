package strategy

import (
	"github.com/sandevgo/recall/internal/core"
)

// The plain strategies: no scoring, no pairing, no summarization. They exist
// for integrations that want predictable selection over smart selection.

// SlidingWindow keeps the newest maxMessages messages that also fit the token
// budget, oldest first.
func SlidingWindow(messages []core.Message, maxMessages, maxTokens int, count core.TokenCounter) core.ContextResult {
	var selected []core.Message
	total := 0

	for i := len(messages) - 1; i >= 0; i-- {
		if maxMessages > 0 && len(selected) >= maxMessages {
			break
		}
		cost := count(messages[i].Content)
		if total+cost > maxTokens {
			break
		}
		selected = append(selected, messages[i])
		total += cost
	}

	reverse(selected)

	return core.ContextResult{
		Messages:     selected,
		TokenCount:   total,
		MessageCount: len(selected),
	}
}

// TokenBudget packs newest-first until the budget is exhausted, with no
// message-count ceiling.
func TokenBudget(messages []core.Message, maxTokens int, count core.TokenCounter) core.ContextResult {
	return SlidingWindow(messages, 0, maxTokens, count)
}

func reverse(msgs []core.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
