package store

import (
	"sync"

	"capsarc/internal/util"
	"capsarc/pkg/domain"
)

// MemorySessionStore keeps sessions in-process, for tests and local runs.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewMemorySessionStore initializes an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domain.Session)}
}

// NewSession stores the session under a fresh token.
func (s *MemorySessionStore) NewSession(sess domain.Session) (string, error) {
	sess.LoggedIn = true
	token := util.NewID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sess
	return token, nil
}

// GetSession resolves a token to its session.
func (s *MemorySessionStore) GetSession(token string) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	return sess, ok, nil
}

// DeleteSession removes a token mapping.
func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
