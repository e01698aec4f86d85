package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddAndGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	got, err := store.GetMessages(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, got, "unknown session reads as empty, not as an error")

	require.NoError(t, store.AddMessage(ctx, "s1", core.Message{
		ID: "m1", Role: core.RoleUser, Content: "first", Timestamp: time.Now(),
	}))
	require.NoError(t, store.AddMessage(ctx, "s1", core.Message{
		ID: "m2", Role: core.RoleAssistant, Content: "second", Timestamp: time.Now(),
	}))

	got, err = store.GetMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID, "insertion order is preserved")
}

func TestStore_GetMessagesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.AddMessage(ctx, "s1", core.Message{ID: "m1", Role: core.RoleUser, Content: "x"}))

	got, _ := store.GetMessages(ctx, "s1")
	got[0].Content = "mutated"

	again, _ := store.GetMessages(ctx, "s1")
	assert.Equal(t, "x", again[0].Content)
}

func TestStore_UpdateMessage(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.AddMessage(ctx, "s1", core.Message{ID: "m1", Role: core.RoleUser, Content: "x"}))

	pinned := true
	importance := 0.7
	require.NoError(t, store.UpdateMessage(ctx, "s1", "m1", core.MessageUpdate{
		Pinned:     &pinned,
		Importance: &importance,
	}))

	got, _ := store.GetMessages(ctx, "s1")
	assert.True(t, got[0].Pinned)
	require.NotNil(t, got[0].Importance)
	assert.InDelta(t, 0.7, *got[0].Importance, 1e-9)

	assert.True(t, core.IsNotFound(store.UpdateMessage(ctx, "s1", "missing", core.MessageUpdate{Pinned: &pinned})))
	assert.True(t, core.IsNotFound(store.UpdateMessage(ctx, "nosession", "m1", core.MessageUpdate{Pinned: &pinned})))
}

func TestStore_DeleteMessage(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.AddMessage(ctx, "s1", core.Message{ID: "m1", Role: core.RoleUser, Content: "x"}))
	require.NoError(t, store.AddMessage(ctx, "s1", core.Message{ID: "m2", Role: core.RoleUser, Content: "y"}))

	require.NoError(t, store.DeleteMessage(ctx, "s1", "m1"))
	assert.True(t, core.IsNotFound(store.DeleteMessage(ctx, "s1", "m1")))

	got, _ := store.GetMessages(ctx, "s1")
	require.Len(t, got, 1)
	assert.Equal(t, "m2", got[0].ID)
}

func TestStore_SummaryAndClear(t *testing.T) {
	ctx := context.Background()
	store := New()

	summary, err := store.GetSummary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "", summary)

	require.NoError(t, store.SetSummary(ctx, "s1", "digest"))
	summary, _ = store.GetSummary(ctx, "s1")
	assert.Equal(t, "digest", summary)

	ok, _ := store.HasSession(ctx, "s1")
	assert.True(t, ok)

	require.NoError(t, store.ClearSession(ctx, "s1"))
	ok, _ = store.HasSession(ctx, "s1")
	assert.False(t, ok)
}
