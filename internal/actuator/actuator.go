// Package actuator drives the cover motor through two relay outputs, one per
// direction of travel.
package actuator

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/gpio"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/logger"
)

const (
	DriverMock   = "mock"
	DriverPeriph = "periph"
	DriverRPIO   = "rpio"
)

// Config selects a driver and the two relay pins. Pin names follow the
// driver: gpioreg names for periph ("GPIO17"), BCM numbers for rpio ("17").
type Config struct {
	Driver    string
	OpenPin   string
	ClosePin  string
	ActiveLow bool
}

// Driver is a cover.Actuator that owns hardware and must be released.
type Driver interface {
	cover.Actuator
	Close() error
}

// New opens the configured driver.
func New(cfg Config, log *logger.Logger) (Driver, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMock, "":
		return NewMock(log), nil
	case DriverPeriph:
		return openPeriph(cfg, log)
	case DriverRPIO:
		return openRPIO(cfg, log)
	default:
		return nil, fmt.Errorf("unknown actuator driver %q", cfg.Driver)
	}
}

// Output is a single relay line. periph's gpio.PinOut satisfies it.
type Output interface {
	Out(l gpio.Level) error
}
