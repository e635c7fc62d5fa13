package audit

import "context"

// Store is an append-only sink for audit events. Implementations: in-memory
// (tests), PostgreSQL outbox (production; the relay forwards outbox rows to
// Kafka).
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, owner string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
