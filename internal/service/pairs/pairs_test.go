package pairs

import (
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkMsg(id, role, content string, seq int) core.Message {
	return core.Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: time.Unix(int64(1700000000+seq), 0),
	}
}

func conversation(entries ...[2]string) []core.Message {
	msgs := make([]core.Message, len(entries))
	for i, e := range entries {
		msgs[i] = mkMsg(e[0], roleFor(e[0]), e[1], i)
	}
	return msgs
}

func roleFor(id string) string {
	switch id[0] {
	case 'u':
		return core.RoleUser
	case 'a':
		return core.RoleAssistant
	case 's':
		return core.RoleSystem
	}
	return core.RoleUser
}

func TestBuildPairs_Scan(t *testing.T) {
	m := NewManager(scoring.NewScorer())

	tests := []struct {
		name      string
		messages  []core.Message
		wantPairs int
		check     func(t *testing.T, built []*Pair)
	}{
		{
			name: "simple_pairing",
			messages: conversation(
				[2]string{"u1", "where should I stay?"},
				[2]string{"a1", "I recommend the old town."},
			),
			wantPairs: 1,
			check: func(t *testing.T, built []*Pair) {
				require.NotNil(t, built[0].User)
				require.NotNil(t, built[0].Assistant)
			},
		},
		{
			name: "consecutive_users_force_close",
			messages: conversation(
				[2]string{"u1", "first question about trains"},
				[2]string{"u2", "second question about buses"},
				[2]string{"a1", "buses run hourly."},
			),
			wantPairs: 2,
			check: func(t *testing.T, built []*Pair) {
				assert.Nil(t, built[0].Assistant, "force-closed pair is unanswered")
				assert.NotNil(t, built[1].Assistant)
			},
		},
		{
			name: "system_is_standalone",
			messages: conversation(
				[2]string{"s1", "You are a travel planner."},
				[2]string{"u1", "plan a weekend trip"},
				[2]string{"a1", "Here is a plan."},
			),
			wantPairs: 2,
			check: func(t *testing.T, built []*Pair) {
				assert.True(t, built[0].IsSystem())
				assert.Equal(t, 1.0, built[0].Importance)
			},
		},
		{
			name: "trailing_user_closes_unanswered",
			messages: conversation(
				[2]string{"u1", "any news about the booking?"},
			),
			wantPairs: 1,
			check: func(t *testing.T, built []*Pair) {
				assert.Nil(t, built[0].Assistant)
			},
		},
		{
			name: "orphan_assistant_survives",
			messages: conversation(
				[2]string{"a1", "Welcome back!"},
				[2]string{"u1", "thanks, what was my plan?"},
			),
			wantPairs: 2,
			check: func(t *testing.T, built []*Pair) {
				assert.Nil(t, built[0].User)
				assert.NotNil(t, built[0].Assistant)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			built := m.BuildPairs(tt.messages)
			require.Len(t, built, tt.wantPairs)
			tt.check(t, built)
		})
	}
}

func TestPairsToMessages_Completeness(t *testing.T) {
	m := NewManager(scoring.NewScorer())

	msgs := conversation(
		[2]string{"s1", "You are helpful."},
		[2]string{"u1", "first question here"},
		[2]string{"u2", "second question here"},
		[2]string{"a1", "answer to second"},
		[2]string{"u3", "trailing question"},
	)

	flat := PairsToMessages(m.BuildPairs(msgs))

	require.Len(t, flat, len(msgs))
	for i := range msgs {
		assert.Equal(t, msgs[i].ID, flat[i].ID, "order must be preserved")
	}
}

func TestDetectReference(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"let's do step 2", true},
		{"the first one sounds good", true},
		{"that approach works for me", true},
		{"you mentioned a discount earlier", true},
		{"tell me more", true},
		{"what about the other option", true},
		{"I would like pizza tonight", false},
		{"how tall is the eiffel tower", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectReference(tt.text))
		})
	}
}

func TestBuildPairs_ImportanceBoosts(t *testing.T) {
	m := NewManager(scoring.NewScorer())

	long := make([]byte, 250)
	for i := range long {
		long[i] = 'x'
	}

	msgs := conversation(
		[2]string{"u1", "walking around outside"}, // baseline 0.4... but first user message -> 0.8
		[2]string{"a1", string(long)},             // long reply +0.1
		[2]string{"u2", "another plain thing entirely"},
		[2]string{"a2", "Option 1: train. Option 2: bus."}, // enumeration +0.15
	)

	built := m.BuildPairs(msgs)
	require.Len(t, built, 2)

	assert.InDelta(t, 0.9, built[0].Importance, 1e-9, "0.8 user + 0.1 long reply")
	assert.InDelta(t, 0.55, built[1].Importance, 1e-9, "0.4 user + 0.15 enumerated reply")
}

func TestBuildPairs_ReferenceBackPropagation(t *testing.T) {
	m := NewManager(scoring.NewScorer())

	msgs := conversation(
		[2]string{"u1", "how do I get to the airport"},
		[2]string{"a1", "Option 1: taxi. Option 2: metro."},
		[2]string{"u2", "random chatter about lunch menus"},
		[2]string{"a2", "Sure."},
		[2]string{"u3", "let's go with option 2"},
		[2]string{"a3", "Metro it is."},
	)

	built := m.BuildPairs(msgs)
	require.Len(t, built, 3)

	referencing := built[2]
	require.True(t, referencing.HasReference)
	require.Len(t, referencing.ReferencedPairIDs, 1)
	assert.Equal(t, built[0].ID, referencing.ReferencedPairIDs[0],
		"nearest enumerated pair wins over nearer non-enumerated pair")

	// referenced pair got +0.2 over its own derived importance
	plain := m.BuildPairs(msgs[:2])
	assert.InDelta(t, clamp(plain[0].Importance+referencedBoost), built[0].Importance, 1e-9)
}

func TestSelectPairs(t *testing.T) {
	m := NewManager(scoring.NewScorer())
	count := func(s string) int { return len(s) / 4 }

	msgs := conversation(
		[2]string{"s1", "You plan trips."},
		[2]string{"u1", "my budget is $2000 for the whole trip"},
		[2]string{"a1", "Noted, $2000 total."},
		[2]string{"u2", "weather talk, nothing that matters"},
		[2]string{"a2", "Indeed."},
		[2]string{"u3", "book the hotel please"},
		[2]string{"a3", "Booked."},
	)
	built := m.BuildPairs(msgs)
	require.Len(t, built, 4)

	selected := m.SelectPairs(built, "", 1000, 1, count)

	ids := make(map[string]bool)
	for _, p := range selected {
		ids[p.ID] = true
	}
	assert.True(t, ids[built[0].ID], "system pair is unconditional")
	assert.True(t, ids[built[3].ID], "most recent pair is unconditional")

	// chronological output
	for i := 1; i < len(selected); i++ {
		assert.True(t, !selected[i].Timestamp.Before(selected[i-1].Timestamp))
	}
}

func TestSelectPairs_BudgetLimitsOlderHistory(t *testing.T) {
	m := NewManager(scoring.NewScorer())
	count := func(s string) int { return len(s) }

	big := make([]byte, 600)
	for i := range big {
		big[i] = 'y'
	}

	msgs := conversation(
		[2]string{"u1", string(big)}, // too big for the history budget
		[2]string{"a1", "short"},
		[2]string{"u2", "recent question"},
		[2]string{"a2", "recent answer"},
	)
	built := m.BuildPairs(msgs)

	selected := m.SelectPairs(built, "", 200, 1, count)

	require.Len(t, selected, 1)
	assert.Equal(t, built[1].ID, selected[0].ID, "only the unconditional recent pair fits")
}
