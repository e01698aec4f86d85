package summary

import (
	"strings"
	"testing"

	"github.com/sandevgo/recall/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func um(content string) core.Message {
	return core.Message{Role: core.RoleUser, Content: content}
}

func am(content string) core.Message {
	return core.Message{Role: core.RoleAssistant, Content: content}
}

func TestExtractEntities(t *testing.T) {
	text := "Anna Schmidt booked for $450.50 on June 12th, confirmation sent to anna@example.com. Anna Schmidt confirmed."

	entities := extractEntities(text)

	assert.Contains(t, entities, "Anna Schmidt")
	assert.Contains(t, entities, "$450.50")
	assert.Contains(t, entities, "anna@example.com")
	assert.Contains(t, entities, "June 12th")

	// duplicates collapse
	seen := map[string]int{}
	for _, e := range entities {
		seen[e]++
	}
	assert.Equal(t, 1, seen["Anna Schmidt"])
}

func TestExtractEntities_EmptyText(t *testing.T) {
	assert.Empty(t, extractEntities("nothing to see"))
}

func TestSummarize_PicksKeySentences(t *testing.T) {
	s := NewSummarizer()

	msgs := []core.Message{
		um("Hi there. I am planning a trip to Lisbon with my family. My budget is $1500 for the week."),
		am("Great choice. Lisbon in spring is lovely. For a $1500 budget I would book the Alfama district."),
		um("We also need to confirm the booking before the May 10th deadline."),
	}

	digest := s.Summarize(msgs)

	require.NotEmpty(t, digest)
	assert.Contains(t, digest, "1500", "budget sentence should survive extraction")
	assert.True(t, strings.HasPrefix(digest, "Key details: "), "entities are prepended when present")
}

func TestSummarize_Empty(t *testing.T) {
	s := NewSummarizer()
	assert.Equal(t, "", s.Summarize(nil))
	assert.Equal(t, "", s.Summarize([]core.Message{um("short")}))
}

func TestSummarize_PreservesOriginalOrder(t *testing.T) {
	s := NewSummarizer()

	msgs := []core.Message{
		um("First we talked about the budget of $200 for trains."),
		um("Later we talked about the budget of $900 for hotels."),
	}

	digest := s.Summarize(msgs)

	first := strings.Index(digest, "$200")
	second := strings.Index(digest, "$900")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second, "summary sentences keep reading order")
}

func TestSummarizeForContext_Structure(t *testing.T) {
	s := NewSummarizer()

	msgs := []core.Message{
		um("I want a quiet hotel with a $300 budget near the old town."),
		am("The Belmond fits a $300 budget and sits right in the old town."),
	}

	digest := s.SummarizeForContext(msgs)

	assert.Contains(t, digest, "User mentioned: ")
	assert.Contains(t, digest, "Assistant provided: ")
}

func TestSummarize_IgnoresToolTraffic(t *testing.T) {
	s := NewSummarizer()

	msgs := []core.Message{
		{Role: core.RoleTool, Content: "raw tool payload with a budget of $999999 inside it."},
		um("My actual budget is $100 for the museum tickets."),
	}

	digest := s.Summarize(msgs)
	assert.NotContains(t, digest, "999999")
}
