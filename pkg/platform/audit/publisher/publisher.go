// Package publisher emits audit events to a Store.
//
// In sync mode Emit blocks until the write succeeds - use this for compliance
// events, where the calling operation must not proceed past a failed audit.
// With WithAsyncBuffer the publisher becomes fire-and-forget: events are
// buffered and drained by a background goroutine, and Close flushes whatever
// is still queued.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	audit "blocktrust/pkg/platform/audit"
)

// Publisher captures structured audit events. It is append-only and uses the
// store layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsyncBuffer switches the publisher to asynchronous mode with the given
// inbox capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// NewPublisher creates a publisher writing to store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. In sync mode the caller blocks until the event
// is persisted and a failure is returned verbatim; in async mode the event is
// queued and Emit only fails when the buffer is full.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			return fmt.Errorf("audit persistence failed: %w", err)
		}
		return nil
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		return fmt.Errorf("audit buffer full, dropping %s", event.Action)
	}
}

// List returns events for an owner account.
func (p *Publisher) List(ctx context.Context, owner string) ([]audit.Event, error) {
	return p.store.ListByOwner(ctx, owner)
}

// Close stops the background drain, flushing queued events first. Safe to
// call multiple times.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			if p.logger != nil {
				p.logger.Error("audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
