package agent

import (
	"context"
	"fmt"

	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// Drafter turns a complete record into a polished draft plus an auto-resolve
// judgment, then composes the preview turn shown to the user. Like the
// clarifier it is terminal: after it runs, the conversation waits for
// confirmation.
type Drafter struct {
	client    LLMClient
	model     string
	logger    *logging.Logger
	metrics   *Metrics
	maxTokens int32
}

// NewDrafter creates a drafter on top of the given backend client.
func NewDrafter(client LLMClient, model string, logger *logging.Logger) *Drafter {
	if client == nil {
		panic("agent: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Drafter{client: client, model: model, logger: logger}
}

// Draft runs the two backend calls in sequence. Unparseable draft output falls
// back to the record's own title and description; unparseable judgment output
// defaults to a negative, low-confidence verdict. A positive judgment at low
// confidence is downgraded to negative before it is surfaced or stored.
func (d *Drafter) Draft(ctx context.Context, record IssueRecord) (Draft, Judgment, Turn, error) {
	resp, err := d.client.Complete(ctx, LLMRequest{
		Model:     d.model,
		MaxTokens: d.maxTokens,
		System:    []string{systemPrompt},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: draftPrompt(record)},
		},
	})
	if err != nil {
		d.metrics.ObserveBackendCall("draft", "error")
		return Draft{}, Judgment{}, Turn{}, fmt.Errorf("agent: draft generation failed: %w", err)
	}
	d.metrics.ObserveBackendCall("draft", "ok")

	draft := Draft{Title: record.Title, Body: record.Description}
	var parsed Draft
	if DecodeJSONBlock(resp.Text, &parsed) {
		if parsed.Title != "" {
			draft.Title = parsed.Title
		}
		if parsed.Body != "" {
			draft.Body = parsed.Body
		}
	} else {
		d.logger.Warn("draft output not parseable, falling back to record fields",
			"preview", preview(resp.Text))
		d.metrics.ObserveParseFailure("draft")
	}

	judgment, err := d.judge(ctx, draft, record)
	if err != nil {
		return Draft{}, Judgment{}, Turn{}, err
	}

	return draft, judgment, previewTurn(draft, judgment), nil
}

func (d *Drafter) judge(ctx context.Context, draft Draft, record IssueRecord) (Judgment, error) {
	resp, err := d.client.Complete(ctx, LLMRequest{
		Model:     d.model,
		MaxTokens: d.maxTokens,
		System:    []string{systemPrompt},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: judgePrompt(draft.Title, draft.Body, record.Category, record.Domain)},
		},
	})
	if err != nil {
		d.metrics.ObserveBackendCall("judge", "error")
		return Judgment{}, fmt.Errorf("agent: auto-resolve judgment failed: %w", err)
	}
	d.metrics.ObserveBackendCall("judge", "ok")

	judgment := Judgment{CanAutoResolve: false, Confidence: ConfidenceLow, Rationale: ""}
	var parsed struct {
		AutoResolve bool   `json:"auto_resolve"`
		Confidence  string `json:"confidence"`
		Reason      string `json:"reason"`
	}
	if DecodeJSONBlock(resp.Text, &parsed) {
		judgment.CanAutoResolve = parsed.AutoResolve
		judgment.Rationale = parsed.Reason
		if parsed.Confidence != "" {
			judgment.Confidence = Confidence(parsed.Confidence)
		}
	} else {
		d.logger.Warn("judgment output not parseable, defaulting to negative",
			"preview", preview(resp.Text))
		d.metrics.ObserveParseFailure("judge")
	}

	// Confidence alone never overrides: only (true, not-low) survives positive.
	if judgment.CanAutoResolve && judgment.Confidence == ConfidenceLow {
		judgment.CanAutoResolve = false
	}

	return judgment, nil
}

var confidenceLabels = map[Confidence]string{
	ConfidenceHigh:   "높음",
	ConfidenceMedium: "보통",
	ConfidenceLow:    "낮음",
}

// previewTurn composes the human-readable draft summary sent to the user.
func previewTurn(draft Draft, judgment Judgment) Turn {
	confidenceText, ok := confidenceLabels[judgment.Confidence]
	if !ok {
		confidenceText = "낮음"
	}

	verdict := "불가"
	if judgment.CanAutoResolve {
		verdict = "가능"
		if judgment.Confidence == ConfidenceMedium {
			verdict = "조건부 가능"
		}
	}

	content := fmt.Sprintf(
		"**이슈 초안이 작성되었습니다.**\n\n"+
			"**제목**: %s\n\n"+
			"---\n%s\n---\n\n"+
			"**자동 해결 판단**: %s (확신도: %s)\n"+
			"**사유**: %s\n\n"+
			"이대로 이슈를 생성할까요? (확인/수정 요청)",
		draft.Title, draft.Body, verdict, confidenceText, judgment.Rationale)

	return Turn{Role: RoleAssistant, Content: content}
}
