package cover

import "time"

// Travel extremes shared by both axes.
const (
	Closed = 0.0
	Open   = 1.0
)

// Operation is the commanded direction of travel.
type Operation int

const (
	OperationIdle Operation = iota
	OperationOpening
	OperationClosing
)

func (o Operation) String() string {
	switch o {
	case OperationOpening:
		return "OPENING"
	case OperationClosing:
		return "CLOSING"
	default:
		return "IDLE"
	}
}

// sign is -1 for closing and +1 otherwise. Every "distance from 0.5" test is
// multiplied by it so both directions share one threshold model.
func (o Operation) sign() float64 {
	if o == OperationClosing {
		return -1
	}
	return 1
}

func (o Operation) opposite() Operation {
	if o == OperationClosing {
		return OperationOpening
	}
	return OperationClosing
}

// State is the controller's FSM state.
type State int

const (
	StateIdle State = iota
	StateMoving
	StateStopping
	StateCalibrating
)

func (s State) String() string {
	switch s {
	case StateMoving:
		return "MOVING"
	case StateStopping:
		return "STOPPING"
	case StateCalibrating:
		return "CALIBRATING"
	default:
		return "IDLE"
	}
}

// Clock is a monotonic millisecond source. Only differences are ever taken,
// so wraparound is harmless.
type Clock interface {
	Millis() uint32
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint32

func (f ClockFunc) Millis() uint32 { return f() }

// NewSystemClock returns a Clock counting milliseconds since its creation.
func NewSystemClock() Clock {
	start := time.Now()
	return ClockFunc(func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	})
}

// Actuator receives fire-and-forget drive commands.
type Actuator interface {
	StartOpening()
	StartClosing()
	Stop()
}

// Report is a state report. Final is set once the cover has settled.
type Report struct {
	Position  float64
	Tilt      float64
	Operation Operation
	State     State
	Final     bool
}

// Publisher receives state reports.
type Publisher interface {
	Publish(r Report)
}

// Traits advertises what the cover supports.
type Traits struct {
	SupportsPosition bool `json:"supports_position"`
	SupportsTilt     bool `json:"supports_tilt"`
	SupportsToggle   bool `json:"supports_toggle"`
	SupportsStop     bool `json:"supports_stop"`
	IsAssumedState   bool `json:"is_assumed_state"`
}

// target is an optional setpoint on one axis.
type target struct {
	value float64
	set   bool
}

func targetAt(v float64) target { return target{value: v, set: true} }

func targetFrom(v *float64) target {
	if v == nil {
		return target{}
	}
	return targetAt(*v)
}
