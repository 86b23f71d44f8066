package agent

import (
	"context"
	"fmt"

	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// MaxTurnLength bounds how much of a single turn is handed to the backend.
// Longer content keeps its prefix.
const MaxTurnLength = 4000

// TruncateContent deterministically bounds turn content for prompt embedding.
// The limit counts characters, not bytes, so multi-byte text is never cut
// mid-rune.
func TruncateContent(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTurnLength {
		return text
	}
	return string(runes[:MaxTurnLength])
}

// Extractor pulls issue fields out of the conversation. The most recent user
// turn is the primary signal; earlier turns disambiguate.
type Extractor struct {
	client    LLMClient
	model     string
	logger    *logging.Logger
	metrics   *Metrics
	maxTokens int32
}

// NewExtractor creates an extractor on top of the given backend client.
func NewExtractor(client LLMClient, model string, logger *logging.Logger) *Extractor {
	if client == nil {
		panic("agent: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{client: client, model: model, logger: logger}
}

// Extract returns the fields it could ground in the conversation as a patch;
// anything it cannot determine is left unset. An empty history or output the
// normalizer cannot decode yields an empty patch, not an error — the turn
// simply contributes nothing. Only a backend failure is returned as an error.
func (e *Extractor) Extract(ctx context.Context, history []Turn) (IssueRecord, error) {
	if len(history) == 0 {
		return IssueRecord{}, nil
	}

	latest := TruncateContent(history[len(history)-1].Content)
	prior := "없음"
	if len(history) > 1 {
		prior = formatHistory(history[:len(history)-1])
	}

	resp, err := e.client.Complete(ctx, LLMRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    []string{systemPrompt},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: extractPrompt(latest, prior)},
		},
	})
	if err != nil {
		e.metrics.ObserveBackendCall("extract", "error")
		return IssueRecord{}, fmt.Errorf("agent: field extraction failed: %w", err)
	}
	e.metrics.ObserveBackendCall("extract", "ok")

	var patch IssueRecord
	if !DecodeJSONBlock(resp.Text, &patch) {
		e.logger.Warn("extraction output not parseable, skipping turn",
			"preview", preview(resp.Text))
		e.metrics.ObserveParseFailure("extract")
		return IssueRecord{}, nil
	}

	return patch, nil
}

// preview bounds backend output for log lines.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > 200 {
		return string(runes[:200])
	}
	return text
}
