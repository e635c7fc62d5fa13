package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "blocktrust/pkg/platform/audit"
)

// Schema holds the outbox and the queryable event table. Append writes both
// in one transaction: outbox rows feed the Kafka relay in insertion order,
// audit_events serves the owner-trail reads without a broker round trip.
const Schema = `
CREATE TABLE IF NOT EXISTS outbox (
    id             UUID PRIMARY KEY,
    aggregate_type TEXT        NOT NULL,
    aggregate_id   TEXT        NOT NULL,
    event_type     TEXT        NOT NULL,
    payload        JSONB       NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_unpublished
    ON outbox (created_at) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_events (
    id           UUID PRIMARY KEY,
    category     TEXT        NOT NULL,
    timestamp    TIMESTAMPTZ NOT NULL,
    action       TEXT        NOT NULL,
    token_id     BIGINT      NOT NULL,
    owner        TEXT        NOT NULL,
    bio_hash     TEXT        NOT NULL,
    applicant_id TEXT        NOT NULL,
    actor_id     TEXT        NOT NULL,
    reason       TEXT        NOT NULL,
    request_id   TEXT        NOT NULL
);
`

// Store implements audit.Store using the transactional outbox pattern.
// Events land in the outbox table for the Kafka relay and in audit_events
// for local queries, atomically.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the audit schema. Idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

// outboxPayload is the JSON structure published to Kafka.
// Field names match audit.Event for proper deserialization by the consumer.
type outboxPayload struct {
	ID          string `json:"ID"`
	Category    string `json:"Category"`
	Timestamp   string `json:"Timestamp"`
	Action      string `json:"Action"`
	TokenID     uint64 `json:"TokenID,omitempty"`
	Owner       string `json:"Owner,omitempty"`
	BioHash     string `json:"BioHash,omitempty"`
	ApplicantID string `json:"ApplicantID,omitempty"`
	ActorID     string `json:"ActorID,omitempty"`
	Reason      string `json:"Reason,omitempty"`
	RequestID   string `json:"RequestID,omitempty"`
}

// Append records an audit event: an outbox row for Kafka publishing and an
// audit_events row for the owner trail, in one transaction.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories is the source of truth
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:          eventID.String(),
		Category:    string(category),
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		Action:      event.Action,
		TokenID:     event.TokenID,
		Owner:       event.Owner,
		BioHash:     event.BioHash,
		ApplicantID: event.ApplicantID,
		ActorID:     event.ActorID,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.TokenID != 0 {
		aggregateType = "identity"
		aggregateID = fmt.Sprintf("%d", event.TokenID)
	}

	// One transaction covers the integration feed and the query table, so a
	// recorded event is always readable locally and never half-written.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, category, timestamp, action, token_id, owner,
			bio_hash, applicant_id, actor_id, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		eventID,
		string(category),
		event.Timestamp,
		event.Action,
		event.TokenID,
		event.Owner,
		event.BioHash,
		event.ApplicantID,
		event.ActorID,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit append: %w", err)
	}
	return nil
}

// ListByOwner returns events for a specific owner account.
func (s *Store) ListByOwner(ctx context.Context, owner string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, action, token_id, owner,
			   bio_hash, applicant_id, actor_id, reason, request_id
		FROM audit_events
		WHERE owner = $1
		ORDER BY timestamp DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, timestamp, action, token_id, owner,
			   bio_hash, applicant_id, actor_id, reason, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category string
			event    audit.Event
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&event.Action,
			&event.TokenID,
			&event.Owner,
			&event.BioHash,
			&event.ApplicantID,
			&event.ActorID,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
