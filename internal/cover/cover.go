// Package cover estimates and drives the position and tilt of a motorized
// window covering from elapsed actuator run time alone.
//
// A Cover is not safe for concurrent use. Tick and Control must be called
// from a single goroutine; the service runner serializes them.
package cover

import (
	"math"

	"tilt_cover/internal/logger"
)

const (
	// interim reports are rate limited to one per publishInterval ms
	publishInterval = 1000.0

	// values this close to an extreme snap onto it when a move settles
	roundingTolerance = 0.005

	defaultPosition = 0.5
	defaultTilt     = 0.5
)

// Cover is the tilt-cover estimator/controller.
type Cover struct {
	t            timings
	assumedState bool

	clock     Clock
	actuator  Actuator
	publisher Publisher
	log       *logger.Logger

	position      float64
	tilt          float64
	operation     Operation
	lastOperation Operation
	state         State

	targetPosition target
	targetTilt     target

	lastRecomputeTime uint32
	lastPublishTime   uint32

	// The interlock survives a stop so it can gate the next opposite start.
	interlockedTime      uint32
	interlockedDirection Operation

	currentRecalibrationTime float64
	currentActivationTime    float64
	inertia                  float64
}

// New builds an idle cover at the default (0.5, 0.5) estimate. publisher and
// log may be nil.
func New(cfg Config, clock Clock, actuator Actuator, publisher Publisher, log *logger.Logger) *Cover {
	return &Cover{
		t:            newTimings(cfg),
		assumedState: cfg.AssumedState,
		clock:        clock,
		actuator:     actuator,
		publisher:    publisher,
		log:          log,
		position:     defaultPosition,
		tilt:         defaultTilt,
	}
}

// Restore replaces the current estimate with a previously persisted one.
func (c *Cover) Restore(position, tilt float64) {
	c.position = clamp(position, Closed, Open)
	c.tilt = clamp(tilt, Closed, Open)
	if c.log != nil {
		c.log.Infow("cover_state_restored", "position", c.position, "tilt", c.tilt)
	}
}

func (c *Cover) Position() float64 { return c.position }
func (c *Cover) Tilt() float64 { return c.tilt }
func (c *Cover) Operation() Operation { return c.operation }
func (c *Cover) LastOperation() Operation { return c.lastOperation }
func (c *Cover) State() State { return c.state }
func (c *Cover) TargetPosition() (float64, bool) { return c.targetPosition.value, c.targetPosition.set }
func (c *Cover) TargetTilt() (float64, bool) { return c.targetTilt.value, c.targetTilt.set }

// Traits reports the supported features.
func (c *Cover) Traits() Traits {
	return Traits{
		SupportsPosition: true,
		SupportsTilt:     c.t.tilt.open != 0 && c.t.tilt.close != 0,
		SupportsToggle:   true,
		SupportsStop:     true,
		IsAssumedState:   c.assumedState,
	}
}

// Snapshot returns the current estimate as a non-final report.
func (c *Cover) Snapshot() Report {
	return c.report(false)
}

// DumpConfig logs the effective calibration and the current estimate.
func (c *Cover) DumpConfig() {
	if c.log == nil {
		return
	}
	c.log.Infow("cover_config",
		"open_duration_s", c.t.move.open/1e3,
		"close_duration_s", c.t.move.close/1e3,
		"tilt_open_duration_s", c.t.tilt.open/1e3,
		"tilt_close_duration_s", c.t.tilt.close/1e3,
		"interlock_wait_time_s", float64(c.t.interlockWait)/1e3,
		"inertia_open_time_s", c.t.inertia.open/1e3,
		"inertia_close_time_s", c.t.inertia.close/1e3,
		"recalibration_open_time_s", c.t.recalibration.open/1e3,
		"recalibration_close_time_s", c.t.recalibration.close/1e3,
		"actuator_activation_open_time_s", c.t.activation.open/1e3,
		"actuator_activation_close_time_s", c.t.activation.close/1e3,
		"assumed_state", c.assumedState,
		"position", c.position,
		"tilt", c.tilt,
	)
}

func (c *Cover) report(final bool) Report {
	return Report{
		Position:  c.position,
		Tilt:      c.tilt,
		Operation: c.operation,
		State:     c.state,
		Final:     final,
	}
}

func (c *Cover) publish(final bool) {
	if c.publisher != nil {
		c.publisher.Publish(c.report(final))
	}
}

func (c *Cover) transition(s State) {
	c.state = s
	if c.log != nil {
		c.log.Debugw("cover_transition",
			"state", s.String(),
			"operation", c.operation.String(),
			"position", c.position,
			"tilt", c.tilt,
		)
	}
}

// computeDirection returns the operation that moves current toward target.
func computeDirection(target, current float64) Operation {
	switch {
	case target > current:
		return OperationOpening
	case target < current:
		return OperationClosing
	default:
		return OperationIdle
	}
}

// atTarget uses exact comparisons; an unset target is always satisfied.
func (c *Cover) atTarget(value float64, t target) bool {
	if !t.set {
		return true
	}
	switch c.operation {
	case OperationOpening:
		return value >= t.value
	case OperationClosing:
		return value <= t.value
	default:
		return true
	}
}

func (c *Cover) atExtreme() bool {
	return (c.position == Closed && (c.t.tilt.close == 0 || c.tilt == Closed)) ||
		(c.position == Open && (c.t.tilt.open == 0 || c.tilt == Open))
}

// roundPosition snaps v onto the nearest extreme when within tolerance.
func roundPosition(v float64) float64 {
	switch {
	case v <= Closed+roundingTolerance:
		return Closed
	case v >= Open-roundingTolerance:
		return Open
	default:
		return v
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
