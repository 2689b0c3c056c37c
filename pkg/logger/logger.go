// Package logger provides the console loggers used by the sequencer commands.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	out   io.Writer
	color bool
}

// Option tweaks NewLogger.
type Option func(*options)

// WithOutput sends log lines to w instead of stdout. The mcp command logs to
// stderr because stdout carries the protocol.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithColor toggles ANSI colored levels.
func WithColor(enabled bool) Option {
	return func(o *options) {
		o.color = enabled
	}
}

func NewLogger(debug bool, opts ...Option) *zap.Logger {
	o := options{out: os.Stdout, color: true}
	for _, opt := range opts {
		opt(&o)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if o.color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(o.out),
		level,
	)

	return zap.New(core, zap.AddCaller())
}
