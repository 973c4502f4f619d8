// internal/events/hub.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Sender is satisfied by socket.Hub.
type Sender interface {
	Send(userID string, message []byte) error
}

// HubPublisher pushes events to the recipients' websocket connections.
type HubPublisher struct {
	Hub Sender
}

func (p HubPublisher) Publish(_ context.Context, ev Event) error {
	if len(ev.Recipients) == 0 {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", ev.Type, err)
	}

	var firstErr error
	for _, userID := range ev.Recipients {
		if err := p.Hub.Send(userID, body); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("events: push %s to %s: %w", ev.Type, userID, err)
		}
	}
	return firstErr
}
