package models

import "time"

// Event types written to the event log.
const (
	EventOpen    = "OPEN"
	EventClose   = "CLOSE"
	EventStop    = "STOP"
	EventToggle  = "TOGGLE"
	EventMove    = "MOVE"
	EventSettled = "SETTLED"
	EventError   = "ERROR"
)

// CoverEvent is a single log entry.
type CoverEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
