package cover

import "time"

// Config holds the per-device calibration durations. Zero disables the
// corresponding feature (tilt, inertia, recalibration, activation delay,
// interlock).
type Config struct {
	OpenDuration  time.Duration
	CloseDuration time.Duration

	TiltOpenDuration  time.Duration
	TiltCloseDuration time.Duration

	InterlockWaitTime time.Duration

	InertiaOpenTime  time.Duration
	InertiaCloseTime time.Duration

	RecalibrationOpenTime  time.Duration
	RecalibrationCloseTime time.Duration

	ActuatorActivationOpenTime  time.Duration
	ActuatorActivationCloseTime time.Duration

	AssumedState bool
}

// byDirection is a duration pair in milliseconds keyed by travel direction.
type byDirection struct {
	open  float64
	close float64
}

func (b byDirection) of(op Operation) float64 {
	if op == OperationClosing {
		return b.close
	}
	return b.open
}

type timings struct {
	move          byDirection
	tilt          byDirection
	inertia       byDirection
	recalibration byDirection
	activation    byDirection
	interlockWait uint32
}

func newTimings(cfg Config) timings {
	t := timings{
		move:          pairOf(cfg.OpenDuration, cfg.CloseDuration),
		tilt:          pairOf(cfg.TiltOpenDuration, cfg.TiltCloseDuration),
		inertia:       pairOf(cfg.InertiaOpenTime, cfg.InertiaCloseTime),
		recalibration: pairOf(cfg.RecalibrationOpenTime, cfg.RecalibrationCloseTime),
		activation:    pairOf(cfg.ActuatorActivationOpenTime, cfg.ActuatorActivationCloseTime),
		interlockWait: uint32(millis(cfg.InterlockWaitTime)),
	}
	// Tilt is all-or-nothing.
	if t.tilt.open == 0 || t.tilt.close == 0 {
		t.tilt = byDirection{}
	}
	return t
}

func pairOf(opening, closing time.Duration) byDirection {
	return byDirection{open: millis(opening), close: millis(closing)}
}

func millis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d / time.Millisecond)
}
