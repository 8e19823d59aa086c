package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter implements Logger using zap.
// zap has no trace level; Trace is written at debug level with trace=true.
type ZapAdapter struct {
	logger *zap.Logger
}

// NewZapAdapter creates an adapter wrapping an existing *zap.Logger.
// A nil logger is replaced by zap.NewNop().
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{logger: logger}
}

// Trace logs a trace-level message.
func (z *ZapAdapter) Trace(msg string, fields ...Field) {
	if ce := z.logger.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(append(zapFields(fields), zap.Bool("trace", true))...)
	}
}

// Debug logs a debug-level message.
func (z *ZapAdapter) Debug(msg string, fields ...Field) {
	z.logger.Debug(msg, zapFields(fields)...)
}

// Info logs an info-level message.
func (z *ZapAdapter) Info(msg string, fields ...Field) {
	z.logger.Info(msg, zapFields(fields)...)
}

// Warn logs a warning-level message.
func (z *ZapAdapter) Warn(msg string, fields ...Field) {
	z.logger.Warn(msg, zapFields(fields)...)
}

// Error logs an error-level message.
func (z *ZapAdapter) Error(msg string, fields ...Field) {
	z.logger.Error(msg, zapFields(fields)...)
}

// Logger returns the underlying *zap.Logger.
func (z *ZapAdapter) Logger() *zap.Logger {
	return z.logger
}

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case uint64:
			out = append(out, zap.Uint64(f.Key, v))
		case float64:
			out = append(out, zap.Float64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case time.Time:
			out = append(out, zap.Time(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
