package actuator

import (
	"sync"

	"tilt_cover/internal/logger"
)

// Mock records the last command and logs it. Used when no relay hardware is
// attached.
type Mock struct {
	mu   sync.Mutex
	last string
	log  *logger.Logger
}

func NewMock(log *logger.Logger) *Mock {
	return &Mock{last: "stop", log: log}
}

func (m *Mock) StartOpening() { m.command("open") }
func (m *Mock) StartClosing() { m.command("close") }
func (m *Mock) Stop()         { m.command("stop") }
func (m *Mock) Close() error  { return nil }

// Last returns the most recent command.
func (m *Mock) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Mock) command(cmd string) {
	m.mu.Lock()
	m.last = cmd
	m.mu.Unlock()
	if m.log != nil {
		m.log.Infow("actuator_command", "driver", DriverMock, "command", cmd)
	}
}
