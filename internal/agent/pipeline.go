package agent

import (
	"context"

	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// Pipeline is the conversation state machine: extract, classify, then either
// ask a follow-up question or produce a draft. Phase transitions are
// needs_info → {needs_info, ready}, ready → {ready, confirmed}; confirmed is
// terminal and produces no new text. Only the classifier routes — no other
// component makes a dispatch decision.
type Pipeline struct {
	extractor *Extractor
	clarifier *Clarifier
	drafter   *Drafter
	logger    *logging.Logger
	metrics   *Metrics
	maxTokens int32
}

// PipelineOption configures the pipeline.
type PipelineOption func(*Pipeline)

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithMaxTokens caps the backend's output length per call. Zero leaves the
// backend default in place.
func WithMaxTokens(n int32) PipelineOption {
	return func(p *Pipeline) { p.maxTokens = n }
}

// NewPipeline wires the four stages around one backend client.
func NewPipeline(client LLMClient, model string, logger *logging.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}
	p := &Pipeline{
		extractor: NewExtractor(client, model, logger),
		clarifier: NewClarifier(client, model, logger),
		drafter:   NewDrafter(client, model, logger),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.extractor.metrics = p.metrics
	p.clarifier.metrics = p.metrics
	p.drafter.metrics = p.metrics
	p.extractor.maxTokens = p.maxTokens
	p.clarifier.maxTokens = p.maxTokens
	p.drafter.maxTokens = p.maxTokens
	return p
}

// Run processes one turn against the state and returns only the turns it
// appended, so the caller can forward exactly the new assistant output. The
// state is mutated in place; on error it must be discarded, not persisted.
//
// A confirmation turn resolves the phase before extraction: the record is
// already complete and the content is just an acknowledgment, so the
// extractor is skipped and no new text is produced.
func (p *Pipeline) Run(ctx context.Context, st *State) ([]Turn, error) {
	if Classify(st.Record, st.Draft, st.LastTurn()) == PhaseConfirmed {
		st.Phase = PhaseConfirmed
		p.metrics.ObserveTurn(PhaseConfirmed)
		p.logger.Info("conversation confirmed",
			"conversation_id", st.ConversationID)
		return nil, nil
	}

	patch, err := p.extractor.Extract(ctx, st.History)
	if err != nil {
		return nil, err
	}
	st.Record.Merge(patch)

	phase := Classify(st.Record, st.Draft, st.LastTurn())
	st.Phase = phase
	p.metrics.ObserveTurn(phase)

	switch phase {
	case PhaseNeedsInfo:
		question, err := p.clarifier.Ask(ctx, st.Record, st.History)
		if err != nil {
			return nil, err
		}
		st.Append(question)
		return []Turn{question}, nil

	case PhaseReady:
		draft, judgment, previewMsg, err := p.drafter.Draft(ctx, st.Record)
		if err != nil {
			return nil, err
		}
		st.Draft = &draft
		st.Judgment = &judgment
		st.Append(previewMsg)
		return []Turn{previewMsg}, nil

	default:
		// Unreachable: Classify only returns the three phases and
		// confirmed was handled above.
		return nil, nil
	}
}
