package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"docstamp/internal/auth/models"
	"docstamp/pkg/platform/sentinel"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "docstamp_session_lookup_duration_ms",
	Help:    "Latency of Redis session lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	sessionKeyPrefix = "session:id:"
	actorKeyPrefix   = "session:actor:"
)

// RedisStore keeps sessions in Redis with a TTL matching the session expiry, plus
// a per-actor index set used to revoke every session of a deleted user.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, sess *models.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	actorKey := actorKeyPrefix + sess.Actor
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.ID, payload, ttl)
	pipe.SAdd(ctx, actorKey, sess.ID)
	pipe.Expire(ctx, actorKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, sentinel.ErrExpired
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.FindByID(ctx, id)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil && !errors.Is(err, sentinel.ErrExpired):
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	if sess != nil {
		pipe.SRem(ctx, actorKeyPrefix+sess.Actor, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByActor(ctx context.Context, actor string) (int, error) {
	actorKey := actorKeyPrefix + actor
	ids, err := s.client.SMembers(ctx, actorKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list actor sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	dels := make([]*redis.IntCmd, 0, len(ids))
	for _, id := range ids {
		dels = append(dels, pipe.Del(ctx, sessionKeyPrefix+id))
	}
	pipe.Del(ctx, actorKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("delete actor sessions: %w", err)
	}

	n := 0
	for _, cmd := range dels {
		n += int(cmd.Val())
	}
	return n, nil
}
