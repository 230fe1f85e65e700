package session

import (
	"context"
	"sync"
	"time"

	"docstamp/internal/auth/models"
	"docstamp/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in process memory. Expired sessions are
// dropped lazily on lookup.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*models.Session), now: time.Now}
}

func (s *InMemorySessionStore) Create(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sess
	s.sessions[sess.ID] = &stored
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, sentinel.ErrExpired
	}
	found := *sess
	return &found, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteByActor removes every session of actor and returns how many were removed.
func (s *InMemorySessionStore) DeleteByActor(_ context.Context, actor string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Actor == actor {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
