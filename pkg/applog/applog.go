// Package applog builds termwm's structured logger. go.uber.org/zap is
// an indirect dependency of the teacher's own go.mod (pulled in via its
// TLS stack); nothing in the teacher actually logs with it, so this
// package promotes it to a direct dependency and gives termwm real
// structured logging in the teacher's idiom.
package applog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Host stdout is reserved for the
// compositor's own escape-sequence output, so all logging goes to
// stderr regardless of level — matching the original's own "stdout is
// being filled with escape codes, log to stderr instead" comment.
//
// debug widens the level to Debug and switches to zap's
// development encoder (human-readable, stack traces on Warn+); without
// it the logger runs at Info with the compact JSON production encoder.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// DebugEnabled reports whether the TERMWM_DEBUG environment variable
// requests verbose logging. It is the only switch for debug logging;
// there is no command-line flag for it.
func DebugEnabled() bool {
	return os.Getenv("TERMWM_DEBUG") != ""
}
