package logger

import (
	"sync"
)

// Level names accepted in config.yml (log_level), case-insensitive.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Encodings accepted in config.yml (log_format).
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Init builds the process-wide logger. Only the first call of Init or Get
// has any effect.
func Init(level, format string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, format)
	})
	return globalLogger
}

// Get returns the process-wide logger, creating a console logger at level
// if Init was never called.
func Get(level string) *Logger {
	return Init(level, FormatConsole)
}

// Named returns a child logger tagged with the component name. It is safe to
// call on a nil Logger, which yields nil.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With("component", component)}
}
