package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/internal/session"
)

type scriptedLLM struct {
	responses []agent.LLMResponse
	errs      []error
	calls     int
}

func (s *scriptedLLM) Complete(ctx context.Context, req agent.LLMRequest) (agent.LLMResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return agent.LLMResponse{}, s.errs[i]
	}
	if i >= len(s.responses) {
		return agent.LLMResponse{}, errors.New("no scripted response")
	}
	return s.responses[i], nil
}

type recordingArchiver struct {
	archived []string
	err      error
}

func (r *recordingArchiver) Archive(ctx context.Context, st *agent.State) error {
	if r.err != nil {
		return r.err
	}
	r.archived = append(r.archived, st.ConversationID)
	return nil
}

func newTestService(llm *scriptedLLM, opts ...Option) (*Service, session.Store) {
	store := session.NewMemoryStore()
	pipeline := agent.NewPipeline(llm, "test-model", nil)
	return NewService(store, pipeline, nil, opts...), store
}

func askResponses() []agent.LLMResponse {
	return []agent.LLMResponse{
		{Text: `{"issue_title": "로그인 실패"}`},
		{Text: "조금 더 자세히 알려주시겠어요?"},
	}
}

func TestStartPersistsStateAndReturnsReplies(t *testing.T) {
	svc, store := newTestService(&scriptedLLM{responses: askResponses()})
	ctx := context.Background()

	turns, err := svc.Start(ctx, "conv-1", "user-1", "로그인이 안 돼요")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, agent.RoleAssistant, turns[0].Role)

	st, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, st.History, 2)
	assert.Equal(t, agent.PhaseNeedsInfo, st.Phase)
	assert.Equal(t, "user-1", st.OriginatorID)
}

func TestMessageUnknownConversation(t *testing.T) {
	svc, _ := newTestService(&scriptedLLM{})

	_, err := svc.Message(context.Background(), "missing", "안녕하세요")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestFailedTurnRollsBackByOmission(t *testing.T) {
	llm := &scriptedLLM{
		responses: append(askResponses(), agent.LLMResponse{}),
		errs:      []error{nil, nil, errors.New("backend down")},
	}
	svc, store := newTestService(llm)
	ctx := context.Background()

	_, err := svc.Start(ctx, "conv-1", "user-1", "로그인이 안 돼요")
	require.NoError(t, err)

	_, err = svc.Message(ctx, "conv-1", "500 에러가 나요")
	require.Error(t, err)

	// The failed turn left no trace: same history as after the first turn.
	st, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, st.History, 2)
	assert.Equal(t, agent.PhaseNeedsInfo, st.Phase)
}

func TestConfirmationArchivesConversation(t *testing.T) {
	llm := &scriptedLLM{responses: []agent.LLMResponse{
		{Text: `{"issue_title": "로그인 실패", "issue_description": "500 에러", "issue_type": "bug", "affected_domain": "auth"}`},
		{Text: `{"draft_title": "[BUG] 로그인 실패", "draft_body": "## 설명"}`},
		{Text: `{"auto_resolve": false, "confidence": "low", "reason": ""}`},
	}}
	arch := &recordingArchiver{}
	svc, store := newTestService(llm, WithArchiver(arch))
	ctx := context.Background()

	_, err := svc.Start(ctx, "conv-1", "user-1", "로그인하면 500 에러가 나요. auth 버그예요.")
	require.NoError(t, err)
	assert.Empty(t, arch.archived)

	turns, err := svc.Message(ctx, "conv-1", "확인")
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.Equal(t, []string{"conv-1"}, arch.archived)

	st, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, agent.PhaseConfirmed, st.Phase)
}

func TestArchiveFailureDoesNotFailTurn(t *testing.T) {
	llm := &scriptedLLM{responses: []agent.LLMResponse{
		{Text: `{"issue_title": "로그인 실패", "issue_description": "500 에러", "issue_type": "bug", "affected_domain": "auth"}`},
		{Text: `{"draft_title": "t", "draft_body": "b"}`},
		{Text: `{"auto_resolve": false, "confidence": "low", "reason": ""}`},
	}}
	svc, store := newTestService(llm, WithArchiver(&recordingArchiver{err: errors.New("disk full")}))
	ctx := context.Background()

	_, err := svc.Start(ctx, "conv-1", "user-1", "로그인하면 500 에러가 나요")
	require.NoError(t, err)

	_, err = svc.Message(ctx, "conv-1", "확인")
	require.NoError(t, err)

	st, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, agent.PhaseConfirmed, st.Phase)
}

func TestStartReplacesExistingSession(t *testing.T) {
	llm := &scriptedLLM{responses: append(askResponses(), askResponses()...)}
	svc, store := newTestService(llm)
	ctx := context.Background()

	_, err := svc.Start(ctx, "conv-1", "user-1", "첫 번째 제보")
	require.NoError(t, err)

	_, err = svc.Start(ctx, "conv-1", "user-2", "두 번째 제보")
	require.NoError(t, err)

	st, err := store.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "user-2", st.OriginatorID)
	assert.Equal(t, "두 번째 제보", st.History[0].Content)
}

func TestExistsAndDiscard(t *testing.T) {
	svc, _ := newTestService(&scriptedLLM{responses: askResponses()})
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Start(ctx, "conv-1", "user-1", "로그인이 안 돼요")
	require.NoError(t, err)

	ok, err = svc.Exists(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Discard(ctx, "conv-1"))
	ok, err = svc.Exists(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
