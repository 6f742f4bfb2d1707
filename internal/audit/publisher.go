package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. An optional
// secondary sink (Kafka) receives a best-effort copy.
type Publisher struct {
	store Store
	sink  Sink
}

// Sink receives a copy of every event; delivery is best-effort.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

func NewPublisher(store Store, sink Sink) *Publisher {
	return &Publisher{store: store, sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		// The store is the source of truth; sink errors do not fail the emit.
		_ = p.sink.Publish(ctx, event)
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}
