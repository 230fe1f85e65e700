//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"docstamp/internal/audit"
	"docstamp/internal/platform/config"
	"docstamp/internal/platform/kafka"
	"docstamp/pkg/testutil/containers"
)

func TestKafkaPublisherMirrorsRecords(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Kafka{Brokers: []string{broker.Broker}, AuditTopic: "generation-logs-test"}
	producer, err := kafka.NewClient(cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg.AuditTopic))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg.AuditTopic), "second ensure is idempotent")

	rec := audit.Record{ID: 7, Actor: "admin", NationalID: "12345678901", FirstName: "Ali", LastName: "Veli", Timestamp: time.Now().UTC()}
	require.NoError(t, audit.NewKafkaPublisher(producer, cfg.AuditTopic).Publish(ctx, rec))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(cfg.AuditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	var got audit.Record
	fetches.EachRecord(func(r *kgo.Record) {
		require.Equal(t, "admin", string(r.Key))
		require.NoError(t, json.Unmarshal(r.Value, &got))
	})
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, "Ali", got.FirstName)
}
