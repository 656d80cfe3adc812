package consumer

import (
	"github.com/falconleb/shopify-tracker/internal/dto"
)

// MessageParser defines the interface for parsing raw message bytes into a
// track event and its event id.
type MessageParser interface {
	Parse(body []byte) (*dto.TrackEventRequest, string, error)
}
