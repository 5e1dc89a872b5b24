package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// unknown level strings fall back to debug
const defaultZapLevel = zapcore.DebugLevel

func toZapLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newEncoder picks the JSON encoder for "json" and the console one otherwise.
// JSON keeps lowercase levels for log shippers.
func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	if strings.EqualFold(format, FormatJSON) {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newZapLogger(levelStr, format string) *Logger {
	return New(zapcore.Lock(os.Stdout), levelStr, format)
}

// New builds a standalone logger writing to w.
func New(w io.Writer, levelStr, format string) *Logger {
	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(w), zap.NewAtomicLevelAt(toZapLevel(levelStr)))
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// NewWithWriter builds a standalone console logger writing to w.
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	return New(w, levelStr, FormatConsole)
}
