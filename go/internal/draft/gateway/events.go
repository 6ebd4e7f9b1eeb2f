package gateway

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/livedraft/go/internal/models"
)

// MessageType identifies what a websocket message carries.
type MessageType string

const (
	// MessageTypeSnapshot is sent on connect and whenever the gateway re-reads
	// the snapshot outside of an event.
	MessageTypeSnapshot MessageType = "Snapshot"
	// MessageTypeEvent wraps a domain event along with the snapshot read
	// after it.
	MessageTypeEvent MessageType = "Event"
	// MessageTypeOnClock goes only to the connections of the participant
	// whose pick window just opened.
	MessageTypeOnClock MessageType = "OnClock"
)

// DraftMessage is the body of every websocket message. Clients should render
// from State and treat Event as a hint about what changed.
type DraftMessage struct {
	ID        string             `json:"id,omitempty"`
	DraftID   string             `json:"draft_id"`
	Type      MessageType        `json:"type"`
	EventType string             `json:"event_type,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Data      json.RawMessage    `json:"data,omitempty"`
	State     *models.DraftState `json:"state,omitempty"`
}
