package consumer

import (
	"context"

	"github.com/falconleb/shopify-tracker/internal/dto"
)

// Envelope wraps a parsed track event with its queue-assigned event id and
// acknowledgment callbacks.
type Envelope struct {
	Event   *dto.TrackEventRequest
	EventID string
	ack     func(context.Context) error
	nack    func(context.Context) error
}

// NewEnvelope creates a new message envelope.
func NewEnvelope(event *dto.TrackEventRequest, eventID string, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event:   event,
		EventID: eventID,
		ack:     ack,
		nack:    nack,
	}
}

// Ack acknowledges successful processing.
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing.
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
