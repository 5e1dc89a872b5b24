package actuator

import (
	"errors"

	"periph.io/x/conn/v3/gpio"

	"tilt_cover/internal/logger"
)

// Relay switches an open relay and a close relay. The opposite relay is
// always released before the requested one is energized, so both are never
// on at the same time.
type Relay struct {
	open      Output
	close     Output
	activeLow bool
	release   func() error
	log       *logger.Logger
}

// NewRelay wraps two outputs. release, if non-nil, runs on Close after both
// relays are off.
func NewRelay(open, close Output, activeLow bool, release func() error, log *logger.Logger) *Relay {
	return &Relay{open: open, close: close, activeLow: activeLow, release: release, log: log}
}

func (r *Relay) StartOpening() {
	r.logCommand("open")
	r.set("close", r.close, false)
	r.set("open", r.open, true)
}

func (r *Relay) StartClosing() {
	r.logCommand("close")
	r.set("open", r.open, false)
	r.set("close", r.close, true)
}

func (r *Relay) Stop() {
	r.logCommand("stop")
	r.set("open", r.open, false)
	r.set("close", r.close, false)
}

// Close switches both relays off and releases the driver.
func (r *Relay) Close() error {
	errOpen := r.open.Out(r.level(false))
	errClose := r.close.Out(r.level(false))
	var errRelease error
	if r.release != nil {
		errRelease = r.release()
	}
	return errors.Join(errOpen, errClose, errRelease)
}

func (r *Relay) level(on bool) gpio.Level {
	return gpio.Level(on != r.activeLow)
}

// set never fails the caller: the estimator treats the actuator as
// fire-and-forget, so a failed write is only logged.
func (r *Relay) set(name string, out Output, on bool) {
	if err := out.Out(r.level(on)); err != nil && r.log != nil {
		r.log.Errorw("relay_write_failed", "relay", name, "on", on, "err", err)
	}
}

func (r *Relay) logCommand(cmd string) {
	if r.log != nil {
		r.log.Debugw("actuator_command", "command", cmd)
	}
}
