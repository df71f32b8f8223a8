package dao

import (
	"context"
	"sync"
	"time"

	"github.com/vadim/threadstat/internal/domain/session/entity"
)

// SessionMemory keeps sessions in process memory
type SessionMemory struct {
	mu       sync.RWMutex
	sessions map[string]entity.Session
}

// NewSessionMemory creates an empty in-memory session store
func NewSessionMemory() *SessionMemory {
	return &SessionMemory{sessions: make(map[string]entity.Session)}
}

// Create stores a session
func (s *SessionMemory) Create(ctx context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

// Get returns a copy of the session with the given id
func (s *SessionMemory) Get(ctx context.Context, id string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes a session; deleting an unknown id is not an error
func (s *SessionMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteExpired removes sessions that expired at or before now
func (s *SessionMemory) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
