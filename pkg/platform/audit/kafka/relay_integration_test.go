//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "blocktrust/pkg/platform/audit"
	"blocktrust/pkg/platform/audit/kafka"
	auditpg "blocktrust/pkg/platform/audit/store/postgres"
	"blocktrust/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	broker   string
	store    *auditpg.Store
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.broker = mgr.GetRedpanda(s.T()).Broker
	s.store = auditpg.New(s.postgres.DB)
}

func (s *RelaySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox", "audit_events"))
}

func (s *RelaySuite) TestRelayForwardsOutboxRows() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := "blocktrust.audit.relay-test"
	relay, err := kafka.NewRelay(s.postgres.DB, []string{s.broker}, topic,
		slog.Default(), kafka.WithPollInterval(100*time.Millisecond))
	s.Require().NoError(err)
	defer relay.Close()

	events := []audit.Event{
		{Timestamp: time.Now(), Action: string(audit.EventIdentityMinted), TokenID: 1, Owner: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
		{Timestamp: time.Now(), Action: string(audit.EventIdentityDeactivated), TokenID: 1, Owner: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Reason: "lost device"},
	}
	for _, event := range events {
		s.Require().NoError(s.store.Append(ctx, event))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = relay.Run(ctx)
	}()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var records []*kgo.Record
	deadline := time.Now().Add(15 * time.Second)
	for len(records) < len(events) && time.Now().Before(deadline) {
		pollCtx, pollCancel := context.WithTimeout(ctx, time.Second)
		fetches := consumer.PollFetches(pollCtx)
		pollCancel()
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}
	s.Require().Len(records, len(events))

	// Both events belong to token 1, so they share a partition key and
	// arrive in outbox insertion order.
	for i, record := range records {
		s.Equal("1", string(record.Key))
		var payload map[string]any
		s.Require().NoError(json.Unmarshal(record.Value, &payload))
		s.Equal(events[i].Action, payload["Action"])
	}

	s.Eventually(func() bool {
		var unpublished int
		err := s.postgres.DB.QueryRowContext(context.Background(),
			`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`,
		).Scan(&unpublished)
		return err == nil && unpublished == 0
	}, 10*time.Second, 200*time.Millisecond, "outbox rows should be marked published")

	cancel()
	<-done
}

func (s *RelaySuite) TestRelayRetriesAfterRestart() {
	ctx := context.Background()

	topic := "blocktrust.audit.restart-test"
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: time.Now(),
		Action:    string(audit.EventIdentityMinted),
		TokenID:   7,
	}))

	// First relay instance is stopped before its first tick fires; the row
	// must survive for the next instance.
	relay, err := kafka.NewRelay(s.postgres.DB, []string{s.broker}, topic,
		slog.Default(), kafka.WithPollInterval(time.Hour))
	s.Require().NoError(err)
	relay.Close()

	var unpublished int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`,
	).Scan(&unpublished))
	s.Equal(1, unpublished)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	relay2, err := kafka.NewRelay(s.postgres.DB, []string{s.broker}, topic,
		slog.Default(), kafka.WithPollInterval(100*time.Millisecond))
	s.Require().NoError(err)
	defer relay2.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = relay2.Run(runCtx)
	}()

	s.Eventually(func() bool {
		var remaining int
		err := s.postgres.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`,
		).Scan(&remaining)
		return err == nil && remaining == 0
	}, 10*time.Second, 200*time.Millisecond)

	cancel()
	<-done
}
