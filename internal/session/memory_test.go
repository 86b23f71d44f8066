package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
)

func sampleState(id string) *agent.State {
	st := agent.NewState(id, "user-1")
	st.Append(agent.Turn{Role: agent.RoleUser, Content: "로그인이 안 돼요"})
	st.Record = agent.IssueRecord{Title: "로그인 실패", Category: agent.CategoryBug}
	st.Phase = agent.PhaseNeedsInfo
	return st
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "conv-1", sampleState("conv-1")))

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", got.ConversationID)
	assert.Equal(t, "로그인 실패", got.Record.Title)
	assert.Len(t, got.History, 1)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGetReturnsPrivateCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "conv-1", sampleState("conv-1")))

	first, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	first.Record.Title = "변조된 제목"
	first.Append(agent.Turn{Role: agent.RoleUser, Content: "extra"})

	second, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "로그인 실패", second.Record.Title)
	assert.Len(t, second.History, 1)
}

func TestMemoryStoreDeleteAndExists(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.Exists(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "conv-1", sampleState("conv-1")))
	ok, err = store.Exists(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "conv-1"))
	ok, err = store.Exists(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is a no-op.
	require.NoError(t, store.Delete(ctx, "conv-1"))
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "conv-1", sampleState("conv-1")))

	updated := sampleState("conv-1")
	updated.Phase = agent.PhaseReady
	require.NoError(t, store.Put(ctx, "conv-1", updated))

	got, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, agent.PhaseReady, got.Phase)
}
