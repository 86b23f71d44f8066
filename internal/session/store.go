// Package session persists conversation state snapshots keyed by
// conversation id. Implementations own the snapshot layout; callers treat it
// as opaque. Writes are last-write-wins — turn serialization is the agent
// service's job, not the store's.
package session

import (
	"context"
	"errors"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
)

// ErrNotFound indicates the conversation id has no stored state.
var ErrNotFound = errors.New("session: not found")

// Store is a durable mapping from conversation id to its latest state
// snapshot. No transactional cross-key operations are required.
type Store interface {
	Get(ctx context.Context, conversationID string) (*agent.State, error)
	Put(ctx context.Context, conversationID string, state *agent.State) error
	Delete(ctx context.Context, conversationID string) error
	Exists(ctx context.Context, conversationID string) (bool, error)
}
