package strategy

import (
	"fmt"
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/tokens"
)

func history(n int) []core.Message {
	msgs := make([]core.Message, n)
	for i := range msgs {
		msgs[i] = core.Message{
			ID:        fmt.Sprintf("m%d", i),
			Role:      core.RoleUser,
			Content:   "twenty characters!!!", // 5 estimated tokens
			Timestamp: time.Unix(int64(i), 0),
		}
	}
	return msgs
}

func TestSlidingWindow(t *testing.T) {
	msgs := history(10)

	res := SlidingWindow(msgs, 3, 1000, tokens.Estimate)

	if res.MessageCount != 3 {
		t.Fatalf("count = %d, want 3", res.MessageCount)
	}
	if res.Messages[0].ID != "m7" || res.Messages[2].ID != "m9" {
		t.Errorf("window should hold the newest messages oldest-first, got %s..%s",
			res.Messages[0].ID, res.Messages[2].ID)
	}
}

func TestTokenBudget(t *testing.T) {
	msgs := history(10)

	res := TokenBudget(msgs, 12, tokens.Estimate)

	if res.MessageCount != 2 {
		t.Fatalf("count = %d, want 2 at 5 tokens each", res.MessageCount)
	}
	if res.TokenCount > 12 {
		t.Errorf("token count %d exceeds budget", res.TokenCount)
	}
	if res.Messages[len(res.Messages)-1].ID != "m9" {
		t.Error("newest message must be kept")
	}
}

func TestSlidingWindow_Empty(t *testing.T) {
	res := SlidingWindow(nil, 5, 100, tokens.Estimate)
	if res.MessageCount != 0 || res.TokenCount != 0 {
		t.Errorf("empty history should produce an empty result, got %+v", res)
	}
}
