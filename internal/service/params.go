package service

import "time"

// PositionParams is a move request. A nil axis clears any pending target on
// it; both nil is rejected.
type PositionParams struct {
	Position *float64
	Tilt     *float64
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "OPEN", "CLOSE", "STOP", "TOGGLE", "MOVE", "SETTLED", "ERROR"

	// Limit keeps only the most recent events; 0 selects DefaultLogLimit.
	Limit int
}
