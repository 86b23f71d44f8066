package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftRunsTwoBackendCalls(t *testing.T) {
	stub := &stubLLMClient{responses: []LLMResponse{
		{Text: `{"draft_title": "[BUG] 로그인 실패", "draft_body": "## 설명\n500 에러"}`},
		{Text: `{"auto_resolve": true, "confidence": "high", "reason": "단순 설정 문제"}`},
	}}
	d := NewDrafter(stub, "test-model", nil)

	record := completeRecord()
	draft, judgment, preview, err := d.Draft(context.Background(), record)
	require.NoError(t, err)
	require.Len(t, stub.requests, 2)

	assert.Equal(t, "[BUG] 로그인 실패", draft.Title)
	assert.Equal(t, "## 설명\n500 에러", draft.Body)
	assert.True(t, judgment.CanAutoResolve)
	assert.Equal(t, ConfidenceHigh, judgment.Confidence)
	assert.Equal(t, "단순 설정 문제", judgment.Rationale)

	assert.Equal(t, RoleAssistant, preview.Role)
	assert.Contains(t, preview.Content, "[BUG] 로그인 실패")
	assert.Contains(t, preview.Content, "가능")
	assert.Contains(t, preview.Content, "높음")
	assert.Contains(t, preview.Content, "이대로 이슈를 생성할까요?")
}

func TestDraftFallsBackToRecordFields(t *testing.T) {
	stub := &stubLLMClient{responses: []LLMResponse{
		{Text: "초안을 만들 수 없습니다."},
		{Text: `{"auto_resolve": false, "confidence": "low", "reason": ""}`},
	}}
	d := NewDrafter(stub, "test-model", nil)

	record := completeRecord()
	draft, _, _, err := d.Draft(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, record.Title, draft.Title)
	assert.Equal(t, record.Description, draft.Body)
}

func TestDraftPartialOutputKeepsFallbackForMissingField(t *testing.T) {
	stub := &stubLLMClient{responses: []LLMResponse{
		{Text: `{"draft_title": "새 제목"}`},
		{Text: `{"auto_resolve": false, "confidence": "low", "reason": ""}`},
	}}
	d := NewDrafter(stub, "test-model", nil)

	record := completeRecord()
	draft, _, _, err := d.Draft(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "새 제목", draft.Title)
	assert.Equal(t, record.Description, draft.Body)
}

func TestJudgmentDefaultsNegativeOnGarbage(t *testing.T) {
	stub := &stubLLMClient{responses: []LLMResponse{
		{Text: `{"draft_title": "t", "draft_body": "b"}`},
		{Text: "판단 불가"},
	}}
	d := NewDrafter(stub, "test-model", nil)

	_, judgment, _, err := d.Draft(context.Background(), completeRecord())
	require.NoError(t, err)
	assert.False(t, judgment.CanAutoResolve)
	assert.Equal(t, ConfidenceLow, judgment.Confidence)
	assert.Empty(t, judgment.Rationale)
}

func TestPositiveLowConfidenceJudgmentDowngraded(t *testing.T) {
	stub := &stubLLMClient{responses: []LLMResponse{
		{Text: `{"draft_title": "t", "draft_body": "b"}`},
		{Text: `{"auto_resolve": true, "confidence": "low", "reason": "확실하지 않음"}`},
	}}
	d := NewDrafter(stub, "test-model", nil)

	_, judgment, preview, err := d.Draft(context.Background(), completeRecord())
	require.NoError(t, err)
	assert.False(t, judgment.CanAutoResolve)
	assert.Equal(t, ConfidenceLow, judgment.Confidence)
	assert.Contains(t, preview.Content, "불가")
}

func TestMediumConfidenceRendersConditional(t *testing.T) {
	stub := &stubLLMClient{responses: []LLMResponse{
		{Text: `{"draft_title": "t", "draft_body": "b"}`},
		{Text: `{"auto_resolve": true, "confidence": "medium", "reason": "일부 확인 필요"}`},
	}}
	d := NewDrafter(stub, "test-model", nil)

	_, judgment, preview, err := d.Draft(context.Background(), completeRecord())
	require.NoError(t, err)
	assert.True(t, judgment.CanAutoResolve)
	assert.Contains(t, preview.Content, "조건부 가능")
	assert.Contains(t, preview.Content, "보통")
}

func TestDraftBackendErrors(t *testing.T) {
	d := NewDrafter(&stubLLMClient{err: errors.New("down")}, "test-model", nil)
	_, _, _, err := d.Draft(context.Background(), completeRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draft generation failed")

	// Failure on the second call surfaces as a judgment error.
	stub := &stubLLMClient{
		responses: []LLMResponse{{Text: `{"draft_title": "t", "draft_body": "b"}`}},
		errs:      []error{nil, errors.New("down")},
	}
	d = NewDrafter(stub, "test-model", nil)
	_, _, _, err = d.Draft(context.Background(), completeRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto-resolve judgment failed")
}
