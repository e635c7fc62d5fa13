// Package kafka forwards audit events from the transactional outbox to a
// Kafka topic. The relay is the only component that marks outbox rows
// published, so events survive crashes on either side of the handoff:
// unpublished rows are retried on the next tick, and the consumer side
// deduplicates by event id.
package kafka

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// Relay polls the outbox table and publishes unpublished rows in insertion
// order.
type Relay struct {
	db     *sql.DB
	client *kgo.Client
	topic  string
	logger *slog.Logger

	pollInterval time.Duration
	batchSize    int
}

// Option configures the Relay.
type Option func(*Relay)

// WithPollInterval overrides the outbox poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		r.pollInterval = d
	}
}

// WithBatchSize overrides the number of rows forwarded per tick.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		r.batchSize = n
	}
}

// NewRelay connects to the brokers and ensures the topic exists.
func NewRelay(db *sql.DB, brokers []string, topic string, logger *slog.Logger, opts ...Option) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	// Create the topic up front; a TOPIC_ALREADY_EXISTS response is fine.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopics(ctx, 1, 1, nil, topic); err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}

	r := &Relay{
		db:           db,
		client:       client,
		topic:        topic,
		logger:       logger,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run forwards outbox rows until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.forwardBatch(ctx); err != nil {
				// Transient broker or database trouble: log and retry on
				// the next tick, the outbox keeps the events.
				r.logger.ErrorContext(ctx, "outbox relay tick failed", "error", err)
			}
		}
	}
}

func (r *Relay) forwardBatch(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, r.batchSize)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	type entry struct {
		id          uuid.UUID
		aggregateID string
		payload     []byte
	}
	var batch []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.aggregateID, &e.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox: %w", err)
	}

	for _, e := range batch {
		record := &kgo.Record{
			Topic: r.topic,
			// Key by aggregate so all events for one identity land in one
			// partition, preserving their order.
			Key:   []byte(e.aggregateID),
			Value: e.payload,
		}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce outbox entry %s: %w", e.id, err)
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE outbox SET published_at = $1 WHERE id = $2`,
			time.Now(), e.id,
		); err != nil {
			return fmt.Errorf("mark outbox entry published: %w", err)
		}
	}
	return nil
}

// Close releases the Kafka client.
func (r *Relay) Close() {
	r.client.Close()
}
