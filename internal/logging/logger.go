package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.Logger with the six-level scheme modregd exposes on
// its CLI. zap has no native trace level; Trace is implemented as an
// extra-verbose Debug, gated manually before the call reaches zap.
type Logger struct {
	level Level
	z     *zap.Logger
}

// New builds a Logger writing structured JSON to stderr at the given level.
// Off returns a Logger backed by zap.NewNop, matching the teacher's pattern
// of a silent no-op logger rather than special-casing "disabled" at every
// call site.
func New(level Level) *Logger {
	if level == Off {
		return &Logger{level: Off, z: zap.NewNop()}
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		zapLevelFor(level),
	)

	return &Logger{level: level, z: zap.New(core)}
}

// zapLevelFor maps our Level to the zap level of the same verbosity. Debug
// and Trace both map to zap's DebugLevel; Trace itself is gated in this
// package, not by zap's core.
func zapLevelFor(level Level) zapcore.Level {
	switch level {
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	case Info:
		return zapcore.InfoLevel
	case Debug, Trace:
		return zapcore.DebugLevel
	default:
		return zapcore.DebugLevel
	}
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	if l.level >= Error {
		l.z.Error(msg, fields...)
	}
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	if l.level >= Warn {
		l.z.Warn(msg, fields...)
	}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	if l.level >= Info {
		l.z.Info(msg, fields...)
	}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	if l.level >= Debug {
		l.z.Debug(msg, fields...)
	}
}

// Trace logs at the most verbose level. Gated here rather than in zap's
// core since zap has no level below Debug.
func (l *Logger) Trace(msg string, fields ...zap.Field) {
	if l.level >= Trace {
		l.z.Debug(msg, fields...)
	}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
