package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/catturtle123/discord-github-issue-bot/internal/agent"
)

// MemoryStore keeps session snapshots in process memory. Snapshots are stored
// as encoded JSON so callers get a private copy on every Get, same as the
// external backends.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, conversationID string) (*agent.State, error) {
	s.mu.RLock()
	data, ok := s.sessions[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var state agent.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *MemoryStore) Put(ctx context.Context, conversationID string, state *agent.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions[conversationID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.sessions, conversationID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, conversationID string) (bool, error) {
	s.mu.RLock()
	_, ok := s.sessions[conversationID]
	s.mu.RUnlock()
	return ok, nil
}
