package consumer

import (
	"encoding/json"
	"fmt"

	"github.com/falconleb/shopify-tracker/internal/dto"
)

// trackMessage mirrors the queue wire form produced by the publisher.
type trackMessage struct {
	EventID string `json:"event_id"`
	dto.TrackEventRequest
}

// JSONEventParser implements MessageParser for JSON-formatted track
// messages.
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser.
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON message body into a track event and its event id.
func (p *JSONEventParser) Parse(body []byte) (*dto.TrackEventRequest, string, error) {
	var msg trackMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	return &msg.TrackEventRequest, msg.EventID, nil
}
