// Package memory holds process-local fallbacks used when Redis is not configured.
package memory

import (
	"context"
	"sync"
	"time"

	"telegram-reward-bot/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

type stateEntry struct {
	state   repository.ConversationState
	expires time.Time
}

// StateRepo keeps conversation steps in a map with a per-entry TTL.
// Expired entries are dropped lazily on read.
type StateRepo struct {
	mu     sync.Mutex
	states map[int64]stateEntry
	ttl    time.Duration
	now    func() time.Time
}

func NewStateRepo(ttl time.Duration) *StateRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateRepo{states: make(map[int64]stateEntry), ttl: ttl, now: time.Now}
}

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	if state == nil {
		return s.ClearState(ctx, tgID)
	}
	cp := *state
	if state.Data != nil {
		cp.Data = make(map[string]string, len(state.Data))
		for k, v := range state.Data {
			cp.Data[k] = v
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[tgID] = stateEntry{state: cp, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[tgID]
	if !ok {
		return nil, nil
	}
	if s.now().After(e.expires) {
		delete(s.states, tgID)
		return nil, nil
	}
	st := e.state
	return &st, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, tgID)
	return nil
}
