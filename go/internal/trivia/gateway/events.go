package gateway

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/trivia/go/internal/trivia/events"
)

// Frame is the JSON envelope written to websocket clients.
type Frame struct {
	ID        string          `json:"id"`               // Event UUID
	Type      events.Type     `json:"type"`             // Event type
	RoomID    string          `json:"roomId,omitempty"` // Game id for room events
	Timestamp time.Time       `json:"timestamp"`        // Event creation time
	Data      json.RawMessage `json:"data,omitempty"`   // Event-specific payload
}

// ClientMessage is an inbound frame. Only MOVE_CURSOR is understood.
type ClientMessage struct {
	Type events.Type     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewFrame marshals data into a frame. A nil data leaves the payload empty.
func NewFrame(eventType events.Type, roomID string, data any) (*Frame, error) {
	frame := &Frame{
		ID:        uuid.New().String(),
		Type:      eventType,
		RoomID:    roomID,
		Timestamp: time.Now().UTC(),
	}
	if data == nil {
		return frame, nil
	}

	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	frame.Data = raw
	return frame, nil
}
