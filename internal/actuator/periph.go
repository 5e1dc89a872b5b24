package actuator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"tilt_cover/internal/logger"
)

func openPeriph(cfg Config, log *logger.Logger) (*Relay, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	open, err := periphPin(cfg.OpenPin)
	if err != nil {
		return nil, err
	}
	closePin, err := periphPin(cfg.ClosePin)
	if err != nil {
		return nil, err
	}

	r := NewRelay(open, closePin, cfg.ActiveLow, nil, log)
	r.Stop()
	if log != nil {
		log.Infow("actuator_ready", "driver", DriverPeriph, "open_pin", open.Name(), "close_pin", closePin.Name())
	}
	return r, nil
}

func periphPin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return p, nil
}
