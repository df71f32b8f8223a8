package dao

import (
	"context"
	"sync"
	"time"
)

// StateMemory keeps pending OAuth states in memory until they are consumed or expire
type StateMemory struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewStateMemory creates an in-memory state store
func NewStateMemory() *StateMemory {
	return &StateMemory{
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Put records a state value valid for ttl
func (s *StateMemory) Put(ctx context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cleanupLocked(now)
	s.states[state] = now.Add(ttl)
	return nil
}

// Consume removes the state and reports whether it was present and unexpired
func (s *StateMemory) Consume(ctx context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.cleanupLocked(now)

	if _, ok := s.states[state]; !ok {
		return false, nil
	}
	delete(s.states, state)
	return true, nil
}

func (s *StateMemory) cleanupLocked(now time.Time) {
	for state, expiresAt := range s.states {
		if !now.Before(expiresAt) {
			delete(s.states, state)
		}
	}
}
