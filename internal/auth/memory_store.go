package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{digests: make(map[string]string)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu      sync.Mutex
	digests map[string]string
}

func (s *InMemorySessionStore) SaveRefreshToken(_ context.Context, userID, digest string) error {
	s.mu.Lock()
	s.digests[userID] = digest
	s.mu.Unlock()
	return nil
}

func (s *InMemorySessionStore) RotateRefreshToken(_ context.Context, userID, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.digests[userID]; !ok || stored != current {
		return ErrSessionNotFound
	}
	s.digests[userID] = next
	return nil
}

func (s *InMemorySessionStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.digests, userID)
	s.mu.Unlock()
	return nil
}

// Has reports whether a user currently holds a refresh credential. Useful for tests.
func (s *InMemorySessionStore) Has(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.digests[userID]
	return ok
}
