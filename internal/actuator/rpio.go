package actuator

import (
	"fmt"
	"strconv"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/gpio"

	"tilt_cover/internal/logger"
)

// rpioOutput adapts a memory-mapped BCM pin to Output.
type rpioOutput struct {
	pin rpio.Pin
}

func (o rpioOutput) Out(l gpio.Level) error {
	if l {
		o.pin.High()
	} else {
		o.pin.Low()
	}
	return nil
}

func openRPIO(cfg Config, log *logger.Logger) (*Relay, error) {
	open, err := bcmPin(cfg.OpenPin)
	if err != nil {
		return nil, err
	}
	closePin, err := bcmPin(cfg.ClosePin)
	if err != nil {
		return nil, err
	}

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	open.Output()
	closePin.Output()

	release := func() error {
		// leave the lines floating as inputs
		open.Input()
		closePin.Input()
		return rpio.Close()
	}

	r := NewRelay(rpioOutput{open}, rpioOutput{closePin}, cfg.ActiveLow, release, log)
	r.Stop()
	if log != nil {
		log.Infow("actuator_ready", "driver", DriverRPIO, "open_pin", int(open), "close_pin", int(closePin))
	}
	return r, nil
}

func bcmPin(s string) (rpio.Pin, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 27 {
		return 0, fmt.Errorf("invalid BCM pin %q", s)
	}
	return rpio.Pin(n), nil
}
