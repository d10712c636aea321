package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// PanelEvent is the envelope of every message pushed to websocket clients.
type PanelEvent struct {
	ID        string          `json:"id"`
	PanelID   string          `json:"panel_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of panel event
type EventType string

const (
	EventTypeSnapshot         EventType = "Snapshot"
	EventTypeMainClockExpired EventType = "MainClockExpired"
	EventTypeShotClockExpired EventType = "ShotClockExpired"
	EventTypeCommandResult    EventType = "CommandResult"
	EventTypeError            EventType = "Error"
)

// ExpiryPayload accompanies MainClockExpired and ShotClockExpired.
type ExpiryPayload struct {
	PulseMS  int64          `json:"pulse_ms"`
	Snapshot panel.Snapshot `json:"snapshot"`
}

// CommandResultPayload answers a command sent over the websocket.
type CommandResultPayload struct {
	Action   Action         `json:"action"`
	Snapshot panel.Snapshot `json:"snapshot"`
}

type ErrorPayload struct {
	Action Action `json:"action,omitempty"`
	Error  string `json:"error"`
}

// ClientMessage is what a websocket client sends to control its panel.
type ClientMessage struct {
	Action Action `json:"action"`
}

func newPanelEvent(panelID string, typ EventType, at time.Time, payload any) (*PanelEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return &PanelEvent{
		ID:        uuid.NewString(),
		PanelID:   panelID,
		Type:      typ,
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}
