// internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	ConsignmentCreated = "consignment.created"
	BidPlaced          = "bid.placed"
	BidAwarded         = "bid.awarded"
	BidRejected        = "bid.rejected"
	JobStatusChanged   = "job.status_changed"
)

// Event is a domain notification. Recipients are user ids for direct push;
// the broker receives every event regardless of recipients.
type Event struct {
	Type       string      `json:"type"`
	Recipients []string    `json:"-"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurredAt"`
}

func New(eventType string, data interface{}, recipients ...string) Event {
	return Event{
		Type:       eventType,
		Recipients: recipients,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Fanout forwards events to every publisher. Failures are logged and never
// returned: notifications are best-effort.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			logrus.WithError(err).WithField("event", ev.Type).Warn("Failed to publish event")
		}
	}
	return nil
}
