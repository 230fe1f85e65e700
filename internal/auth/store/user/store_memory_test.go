package user

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docstamp/internal/auth/models"
	"docstamp/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func newUser(name, hash string) *models.User {
	return &models.User{Username: name, PasswordHash: hash, CreatedAt: time.Now()}
}

func (s *InMemoryUserStoreSuite) TestCreateAndFind() {
	ctx := context.Background()

	s.Run("returns stored user", func() {
		s.Require().NoError(s.store.Create(ctx, newUser("alice", "h1")))
		found, err := s.store.FindByUsername(ctx, "alice")
		s.Require().NoError(err)
		s.Equal("h1", found.PasswordHash)
	})

	s.Run("duplicate returns ErrConflict and keeps first hash", func() {
		err := s.store.Create(ctx, newUser("alice", "h2"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		found, err := s.store.FindByUsername(ctx, "alice")
		s.Require().NoError(err)
		s.Equal("h1", found.PasswordHash)
	})

	s.Run("unknown user returns ErrNotFound", func() {
		_, err := s.store.FindByUsername(ctx, "bob")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned users are copies", func() {
		found, err := s.store.FindByUsername(ctx, "alice")
		s.Require().NoError(err)
		found.IsAdmin = true

		again, err := s.store.FindByUsername(ctx, "alice")
		s.Require().NoError(err)
		s.False(again.IsAdmin)
	})
}

func (s *InMemoryUserStoreSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newUser("alice", "h")))

	s.Require().NoError(s.store.Delete(ctx, "alice"))
	_, err := s.store.FindByUsername(ctx, "alice")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Delete(ctx, "alice"), sentinel.ErrNotFound)
}

func (s *InMemoryUserStoreSuite) TestListSortedByUsername() {
	ctx := context.Background()
	for _, name := range []string{"carol", "alice", "bob"} {
		s.Require().NoError(s.store.Create(ctx, newUser(name, "h")))
	}
	users, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal("alice", users[0].Username)
	s.Equal("bob", users[1].Username)
	s.Equal("carol", users[2].Username)
}

func (s *InMemoryUserStoreSuite) TestConcurrentCreateOfSameName() {
	ctx := context.Background()
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.store.Create(ctx, newUser("alice", "h")) == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
}
