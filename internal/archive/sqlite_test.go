package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
)

func openTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func confirmedState(id string) *agent.State {
	st := agent.NewState(id, "user-1")
	st.Append(agent.Turn{Role: agent.RoleUser, Content: "로그인이 안 돼요"})
	st.Append(agent.Turn{Role: agent.RoleAssistant, Content: "초안입니다"})
	st.Append(agent.Turn{Role: agent.RoleUser, Content: "확인"})
	st.Record = agent.IssueRecord{
		Title:       "로그인 실패",
		Description: "로그인 버튼을 누르면 500 에러가 발생합니다",
		Category:    agent.CategoryBug,
		Domain:      agent.DomainAuth,
	}
	st.Draft = &agent.Draft{Title: "로그인 실패", Body: "## 설명\n500 에러"}
	st.Judgment = &agent.Judgment{CanAutoResolve: true, Confidence: agent.ConfidenceHigh}
	st.Phase = agent.PhaseConfirmed
	return st
}

func TestArchiveAndGet(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.Archive(ctx, confirmedState("conv-1")))

	rec, err := a.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", rec.ConversationID)
	assert.Equal(t, "user-1", rec.OriginatorID)
	assert.Equal(t, "로그인 실패", rec.Title)
	assert.Equal(t, agent.CategoryBug, rec.Category)
	assert.Equal(t, agent.DomainAuth, rec.Domain)
	assert.True(t, rec.AutoResolve)
	assert.Equal(t, agent.ConfidenceHigh, rec.Confidence)
	assert.Equal(t, 3, rec.TurnCount)
	assert.False(t, rec.ArchivedAt.IsZero())
}

func TestArchiveOverwritesSameConversation(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	st := confirmedState("conv-1")
	require.NoError(t, a.Archive(ctx, st))

	st.Draft.Title = "로그인 실패 (업데이트)"
	require.NoError(t, a.Archive(ctx, st))

	rec, err := a.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "로그인 실패 (업데이트)", rec.Title)

	recent, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestArchiveRejectsStateWithoutDraft(t *testing.T) {
	a := openTestArchive(t)

	st := agent.NewState("conv-2", "user-1")
	err := a.Archive(context.Background(), st)
	assert.Error(t, err)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	require.NoError(t, a.Archive(ctx, confirmedState("conv-a")))
	require.NoError(t, a.Archive(ctx, confirmedState("conv-b")))

	recent, err := a.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}

func TestGetUnknownConversation(t *testing.T) {
	a := openTestArchive(t)

	_, err := a.Get(context.Background(), "missing")
	assert.Error(t, err)
}
