// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectBookCreated   = "books.created"
	SubjectBookActivated = "books.activated"
	SubjectBookDeleted   = "books.deleted"
)

// BookEvent is the payload of every books.* subject.
type BookEvent struct {
	BookID     uuid.UUID `json:"book_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	ISBN       string    `json:"isbn"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, event BookEvent) error
	Close()
}

type conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type NATSPublisher struct {
	conn conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("bookswap-backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event BookEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	return p.conn.Publish(subject, data)
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, BookEvent) error { return nil }

func (NoopPublisher) Close() {}
