package models

import "time"

// CoverState is the persisted and reported estimate of the cover.
type CoverState struct {
	ID        int       `json:"-"`
	Position  float64   `json:"position"`  // 0 closed .. 1 open
	Tilt      float64   `json:"tilt"`      // 0 closed .. 1 open
	Operation string    `json:"operation"` // IDLE | OPENING | CLOSING
	State     string    `json:"state"`     // IDLE | MOVING | STOPPING | CALIBRATING
	Final     bool      `json:"final"`
	UpdatedAt time.Time `json:"updated_at"`
}
