package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// Clarifier asks the user for whatever the record is still missing. It is
// always terminal for the turn: the pipeline never runs anything after it.
type Clarifier struct {
	client    LLMClient
	model     string
	logger    *logging.Logger
	metrics   *Metrics
	maxTokens int32
}

// NewClarifier creates a clarifier on top of the given backend client.
func NewClarifier(client LLMClient, model string, logger *logging.Logger) *Clarifier {
	if client == nil {
		panic("agent: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Clarifier{client: client, model: model, logger: logger}
}

// Ask produces one assistant turn requesting the missing fields, grounded in
// the conversation so far.
func (c *Clarifier) Ask(ctx context.Context, record IssueRecord, history []Turn) (Turn, error) {
	missing := MissingFields(record)
	missingText := "- 추가 세부사항"
	if len(missing) > 0 {
		items := make([]string, len(missing))
		for i, item := range missing {
			items[i] = "- " + item
		}
		missingText = strings.Join(items, "\n")
	}

	resp, err := c.client.Complete(ctx, LLMRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []string{systemPrompt},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: askPrompt(formatHistory(history), missingText)},
		},
	})
	if err != nil {
		c.metrics.ObserveBackendCall("clarify", "error")
		return Turn{}, fmt.Errorf("agent: follow-up question generation failed: %w", err)
	}
	c.metrics.ObserveBackendCall("clarify", "ok")

	return Turn{Role: RoleAssistant, Content: resp.Text}, nil
}
