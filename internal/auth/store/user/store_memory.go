package user

import (
	"context"
	"slices"
	"strings"
	"sync"

	"docstamp/internal/auth/models"
	"docstamp/pkg/platform/sentinel"
)

// InMemoryUserStore keeps directory entries keyed by username.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]*models.User)}
}

// Create inserts user, failing with sentinel.ErrConflict if the name is taken.
func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return sentinel.ErrConflict
	}
	stored := *user
	s.users[user.Username] = &stored
	return nil
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (s *InMemoryUserStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, username)
	return nil
}

// List returns users ordered by username.
func (s *InMemoryUserStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}
