package mqtt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tilt_cover/internal/models"
)

// Command is a bare command received on the set topic.
type Command string

const (
	CommandOpen   Command = "OPEN"
	CommandClose  Command = "CLOSE"
	CommandStop   Command = "STOP"
	CommandToggle Command = "TOGGLE"
)

// ParseCommand accepts OPEN, CLOSE, STOP or TOGGLE in any case.
func ParseCommand(payload []byte) (Command, error) {
	c := Command(strings.ToUpper(strings.TrimSpace(string(payload))))
	switch c {
	case CommandOpen, CommandClose, CommandStop, CommandToggle:
		return c, nil
	default:
		return "", fmt.Errorf("unknown command %q", string(payload))
	}
}

// ParsePercent reads a 0..100 value and returns it on the 0..1 scale.
func ParsePercent(payload []byte) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse percent: %w", err)
	}
	if math.IsNaN(v) || v < 0 || v > 100 {
		return 0, fmt.Errorf("percent out of range: %v", v)
	}
	return v / 100, nil
}

// statePayload is what gets published on the state topic. Position and
// tilt are percentages so they round-trip through the set topics.
type statePayload struct {
	Position  float64 `json:"position"`
	Tilt      float64 `json:"tilt"`
	Operation string  `json:"operation"`
	State     string  `json:"state"`
	Final     bool    `json:"final"`
}

func newStatePayload(st models.CoverState) statePayload {
	return statePayload{
		Position:  toPercent(st.Position),
		Tilt:      toPercent(st.Tilt),
		Operation: st.Operation,
		State:     st.State,
		Final:     st.Final,
	}
}

// toPercent keeps one decimal.
func toPercent(v float64) float64 {
	return math.Round(v*1000) / 10
}
