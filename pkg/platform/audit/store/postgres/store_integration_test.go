//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "blocktrust/pkg/platform/audit"
	auditpg "blocktrust/pkg/platform/audit/store/postgres"
	"blocktrust/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpg.Store
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = auditpg.New(s.postgres.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox", "audit_events"))
}

func (s *PostgresAuditSuite) TestAppendWritesOutbox() {
	ctx := context.Background()

	err := s.store.Append(ctx, audit.Event{
		Timestamp:   time.Now(),
		Action:      string(audit.EventIdentityMinted),
		TokenID:     1,
		Owner:       "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		ApplicantID: "applicant-1",
	})
	s.Require().NoError(err)

	var (
		aggregateType, aggregateID, eventType string
		published                             *time.Time
	)
	err = s.postgres.DB.QueryRowContext(ctx, `
		SELECT aggregate_type, aggregate_id, event_type, published_at FROM outbox
	`).Scan(&aggregateType, &aggregateID, &eventType, &published)
	s.Require().NoError(err)

	// Identity events aggregate by token id so the relay preserves per-record
	// ordering, and rows start unpublished.
	s.Equal("identity", aggregateType)
	s.Equal("1", aggregateID)
	s.Equal(string(audit.EventIdentityMinted), eventType)
	s.Nil(published)
}

func (s *PostgresAuditSuite) TestAppendedEventsAreQueryable() {
	ctx := context.Background()
	owner := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: time.Now().Add(-time.Minute),
		Action:    string(audit.EventIdentityMinted),
		TokenID:   1,
		Owner:     owner,
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: time.Now(),
		Action:    string(audit.EventIdentityDeactivated),
		TokenID:   1,
		Owner:     owner,
		Reason:    "lost device",
	}))

	// The owner trail reads straight from audit_events, no broker required.
	events, err := s.store.ListByOwner(ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventIdentityDeactivated), events[0].Action)
	s.Equal(string(audit.EventIdentityMinted), events[1].Action)
	s.Equal(audit.CategoryCompliance, events[1].Category)

	recent, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Len(recent, 2)

	none, err := s.store.ListByOwner(ctx, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *PostgresAuditSuite) TestAppendWritesBothTablesAtomically() {
	ctx := context.Background()

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: time.Now(),
		Action:    string(audit.EventIdentityMinted),
		TokenID:   3,
		Owner:     "0xcccccccccccccccccccccccccccccccccccccccc",
	}))

	var outboxID, eventID uuid.UUID
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT id FROM outbox`).Scan(&outboxID))
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT id FROM audit_events`).Scan(&eventID))
	s.Equal(outboxID, eventID, "outbox row and queryable row describe the same event")
}
