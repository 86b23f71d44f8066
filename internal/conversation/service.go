// Package conversation is the turn boundary around the agent pipeline: it
// serializes turns per conversation id, loads and persists session state,
// and hands back only the turns produced by the current invocation.
package conversation

import (
	"context"
	"time"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
	"github.com/catturtle123/discord-github-issue-bot/internal/session"
	"github.com/catturtle123/discord-github-issue-bot/pkg/logging"
)

// Archiver receives confirmed conversations for long-term storage. Archiving
// is best-effort: a failure is logged and never fails the turn.
type Archiver interface {
	Archive(ctx context.Context, st *agent.State) error
}

// Service owns the per-conversation lifecycle. State is persisted only after
// a fully successful pipeline run; on a backend failure the turn is abandoned
// and the last persisted snapshot stays intact, so the conversation resumes
// cleanly on the next message.
type Service struct {
	store    session.Store
	locks    *session.KeyLock
	pipeline *agent.Pipeline
	archiver Archiver
	logger   *logging.Logger
	metrics  *agent.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithArchiver attaches an archive sink for confirmed conversations.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithMetrics attaches pipeline metrics to the turn boundary.
func WithMetrics(m *agent.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the turn boundary around a pipeline and a session store.
func NewService(store session.Store, pipeline *agent.Pipeline, logger *logging.Logger, opts ...Option) *Service {
	if store == nil {
		panic("conversation: session store cannot be nil")
	}
	if pipeline == nil {
		panic("conversation: pipeline cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:    store,
		locks:    session.NewKeyLock(),
		pipeline: pipeline,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a conversation with its first user message and runs the
// pipeline. An existing session under the same id is replaced.
func (s *Service) Start(ctx context.Context, conversationID, originatorID, text string) ([]agent.Turn, error) {
	s.locks.Lock(conversationID)
	defer s.locks.Unlock(conversationID)

	st := agent.NewState(conversationID, originatorID)
	st.Append(agent.Turn{Role: agent.RoleUser, Content: text})

	return s.run(ctx, st)
}

// Message processes a follow-up turn for an existing conversation. Unknown
// conversation ids return session.ErrNotFound.
func (s *Service) Message(ctx context.Context, conversationID, text string) ([]agent.Turn, error) {
	s.locks.Lock(conversationID)
	defer s.locks.Unlock(conversationID)

	st, err := s.store.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	st.Append(agent.Turn{Role: agent.RoleUser, Content: text})

	return s.run(ctx, st)
}

func (s *Service) run(ctx context.Context, st *agent.State) ([]agent.Turn, error) {
	started := time.Now()
	turns, err := s.pipeline.Run(ctx, st)
	s.metrics.ObserveTurnLatency(time.Since(started).Seconds())
	if err != nil {
		// Abandon the turn: nothing is persisted, the previous snapshot
		// remains the conversation's state.
		return nil, err
	}

	if err := s.store.Put(ctx, st.ConversationID, st); err != nil {
		return nil, err
	}

	if st.Phase == agent.PhaseConfirmed && s.archiver != nil {
		if err := s.archiver.Archive(ctx, st); err != nil {
			s.logger.Warn("failed to archive confirmed conversation",
				"conversation_id", st.ConversationID, "error", err)
		}
	}

	return turns, nil
}

// Snapshot returns the stored state of a conversation.
func (s *Service) Snapshot(ctx context.Context, conversationID string) (*agent.State, error) {
	return s.store.Get(ctx, conversationID)
}

// Exists reports whether a conversation has stored state.
func (s *Service) Exists(ctx context.Context, conversationID string) (bool, error) {
	return s.store.Exists(ctx, conversationID)
}

// Discard removes a conversation's stored state.
func (s *Service) Discard(ctx context.Context, conversationID string) error {
	s.locks.Lock(conversationID)
	defer s.locks.Unlock(conversationID)
	return s.store.Delete(ctx, conversationID)
}
