package session

import (
	"context"
	"sync"
	"time"

	"clonedirect/internal/domain"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session

	// Now is swappable so tests can control idle timestamps.
	now func() time.Time
}

// NewMemory returns an in-memory Store. Used by tests and store-less runs.
func NewMemory() Store {
	return &memoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

func (s *memoryStore) GetOrCreate(_ context.Context, userID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.sessions[userID]; ok {
		cp := *stored
		cp.Cart = append([]domain.CartLine(nil), stored.Cart...)
		return &cp, nil
	}
	return domain.NewSession(userID), nil
}

func (s *memoryStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.LastActivityAt = s.now()
	cp := *sess
	cp.Cart = append([]domain.CartLine(nil), sess.Cart...)
	s.sessions[sess.UserID] = &cp
	return nil
}

func (s *memoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

func (s *memoryStore) DeleteIdle(_ context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, sess := range s.sessions {
		if sess.LastActivityAt.Before(olderThan) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
