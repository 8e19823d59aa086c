package cliconfig

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bft-labs/batcher/pkg/log"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Logger returns the bootstrap logger used before configuration is loaded.
func Logger() zerolog.Logger {
	return logger
}

// NewLogger builds the process logger for the configured level and format.
// The returned function flushes buffered output and should be called on exit.
func NewLogger(level, format string, w io.Writer) (log.Logger, func(), error) {
	if format == FormatZap {
		return newZapLogger(level, w)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var zl zerolog.Logger
	if format == FormatJSON {
		zl = zerolog.New(w)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	zl = zl.Level(lvl).With().Timestamp().Logger()

	return log.NewZerologAdapterWithLogger(zl), func() {}, nil
}

func newZapLogger(level string, w io.Writer) (log.Logger, func(), error) {
	// zap has no trace level; the adapter emits trace at debug.
	if level == "trace" {
		level = "debug"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	zl := zap.New(core)
	return log.NewZapAdapter(zl), func() { _ = zl.Sync() }, nil
}
