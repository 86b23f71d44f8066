package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateContent(t *testing.T) {
	short := "짧은 메시지"
	assert.Equal(t, short, TruncateContent(short))

	long := strings.Repeat("a", MaxTurnLength+100)
	assert.Len(t, TruncateContent(long), MaxTurnLength)
	assert.True(t, strings.HasPrefix(long, TruncateContent(long)))
}

func TestTruncateContentCountsRunes(t *testing.T) {
	// 3 bytes per rune: byte length exceeds the limit well before the
	// character count does.
	within := strings.Repeat("한", MaxTurnLength)
	assert.Equal(t, within, TruncateContent(within))

	over := strings.Repeat("한", MaxTurnLength+1)
	got := TruncateContent(over)
	assert.Equal(t, MaxTurnLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(over, got))
}

func TestExtractEmptyHistorySkipsBackend(t *testing.T) {
	stub := &stubLLMClient{}
	e := NewExtractor(stub, "test-model", nil)

	patch, err := e.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
	assert.Empty(t, stub.requests)
}

func TestExtractParsesPatch(t *testing.T) {
	stub := &stubLLMClient{response: LLMResponse{
		Text: "```json\n{\"issue_title\": \"로그인 실패\", \"issue_type\": \"bug\", \"affected_domain\": \"auth\"}\n```",
	}}
	e := NewExtractor(stub, "test-model", nil)

	history := []Turn{{Role: RoleUser, Content: "로그인하면 500 에러가 나요"}}
	patch, err := e.Extract(context.Background(), history)
	require.NoError(t, err)

	assert.Equal(t, "로그인 실패", patch.Title)
	assert.Equal(t, CategoryBug, patch.Category)
	assert.Equal(t, DomainAuth, patch.Domain)

	// The latest user turn is embedded in the prompt.
	require.Len(t, stub.requests, 1)
	assert.Contains(t, stub.lastReq.Messages[0].Content, "로그인하면 500 에러가 나요")
}

func TestExtractEmbedsPriorContext(t *testing.T) {
	stub := &stubLLMClient{response: LLMResponse{Text: "{}"}}
	e := NewExtractor(stub, "test-model", nil)

	history := []Turn{
		{Role: RoleUser, Content: "로그인이 안 돼요"},
		{Role: RoleAssistant, Content: "어떤 에러가 발생하나요?"},
		{Role: RoleUser, Content: "500 에러입니다"},
	}
	_, err := e.Extract(context.Background(), history)
	require.NoError(t, err)

	prompt := stub.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "로그인이 안 돼요")
	assert.Contains(t, prompt, "500 에러입니다")
}

func TestExtractUnparseableOutputYieldsEmptyPatch(t *testing.T) {
	stub := &stubLLMClient{response: LLMResponse{Text: "죄송하지만 추출할 수 없습니다."}}
	e := NewExtractor(stub, "test-model", nil)

	history := []Turn{{Role: RoleUser, Content: "로그인이 안 돼요"}}
	patch, err := e.Extract(context.Background(), history)
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestExtractBackendErrorPropagates(t *testing.T) {
	stub := &stubLLMClient{err: errors.New("rate limited")}
	e := NewExtractor(stub, "test-model", nil)

	history := []Turn{{Role: RoleUser, Content: "로그인이 안 돼요"}}
	_, err := e.Extract(context.Background(), history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field extraction failed")
}

func TestExtractTruncatesOversizedTurn(t *testing.T) {
	stub := &stubLLMClient{response: LLMResponse{Text: "{}"}}
	e := NewExtractor(stub, "test-model", nil)

	long := strings.Repeat("x", MaxTurnLength+500)
	_, err := e.Extract(context.Background(), []Turn{{Role: RoleUser, Content: long}})
	require.NoError(t, err)
	assert.NotContains(t, stub.lastReq.Messages[0].Content, long)
}
