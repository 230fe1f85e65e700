//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"docstamp/internal/auth/models"
	"docstamp/internal/auth/store/session"
	"docstamp/pkg/platform/sentinel"
	"docstamp/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func makeSession(actor string, ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{ID: uuid.NewString(), Actor: actor, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

func (s *RedisStoreSuite) TestRoundTripWithTTL() {
	ctx := context.Background()
	sess := makeSession("alice", time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	found, err := s.store.FindByID(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal("alice", found.Actor)
	s.True(sess.ExpiresAt.Equal(found.ExpiresAt))

	ttl, err := s.redis.Client.TTL(ctx, "session:id:"+sess.ID).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)
}

func (s *RedisStoreSuite) TestCreateRejectsExpiredSession() {
	err := s.store.Create(context.Background(), makeSession("alice", -time.Second))
	s.Require().ErrorIs(err, sentinel.ErrExpired)
}

func (s *RedisStoreSuite) TestDeleteIsImmediate() {
	ctx := context.Background()
	sess := makeSession("alice", time.Hour)
	s.Require().NoError(s.store.Create(ctx, sess))

	s.Require().NoError(s.store.Delete(ctx, sess.ID))
	_, err := s.store.FindByID(ctx, sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
	s.Require().NoError(s.store.Delete(ctx, sess.ID))
}

func (s *RedisStoreSuite) TestDeleteByActor() {
	ctx := context.Background()
	a1, a2, b1 := makeSession("alice", time.Hour), makeSession("alice", time.Hour), makeSession("bob", time.Hour)
	for _, sess := range []*models.Session{a1, a2, b1} {
		s.Require().NoError(s.store.Create(ctx, sess))
	}

	n, err := s.store.DeleteByActor(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.store.FindByID(ctx, a2.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByID(ctx, b1.ID)
	s.NoError(err)
}
