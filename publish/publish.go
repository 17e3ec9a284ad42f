// Package publish pushes annotated documents onto NATS subjects for
// downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/medtext/document"
)

// DocumentSubject is the default subject for annotated documents.
const DocumentSubject = "medtext.document.annotated"

// DocumentMessage is the wire format of a published document. The
// document is embedded as its dict serialization.
type DocumentMessage struct {
	UID         string         `json:"uid"`
	Document    map[string]any `json:"document"`
	PublishedAt time.Time      `json:"published_at"`
}

// Validate checks the message is well formed.
func (m *DocumentMessage) Validate() error {
	if m.UID == "" {
		return fmt.Errorf("document uid is required")
	}
	if m.Document == nil {
		return fmt.Errorf("document payload is required")
	}
	return nil
}

// Publisher publishes documents to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher creates a publisher for the given subject, defaulting to
// DocumentSubject when empty.
func NewPublisher(nc *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = DocumentSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}
}

// PublishDocument publishes one annotated document. A nil connection
// skips publishing (graceful degradation).
func (p *Publisher) PublishDocument(ctx context.Context, doc *document.Document) error {
	if p.nc == nil {
		p.logger.Debug("no NATS connection, skipping publish", "doc_uid", doc.UID())
		return nil
	}

	msg := DocumentMessage{
		UID:         doc.UID(),
		Document:    doc.ToDict(true),
		PublishedAt: time.Now().UTC(),
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("document %s: %w", doc.UID(), err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.UID(), err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish document %s: %w", doc.UID(), err)
	}
	// Respect context cancellation on flush so callers can bound the
	// publish round trip.
	if deadline, ok := ctx.Deadline(); ok {
		if err := p.nc.FlushTimeout(time.Until(deadline)); err != nil {
			return fmt.Errorf("flush document %s: %w", doc.UID(), err)
		}
	}
	return nil
}
