// Package logging wires the logr API used throughout the solver to a zap
// backend. Solver code pulls its logger from the context with
// logr.FromContextOrDiscard, so library users who bring their own logr
// sink never touch this package.
package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels used with logr's V().
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// NewLogger returns a production JSON logger writing to stderr. verbosity
// selects the most detailed level that will be emitted.
func NewLogger(verbosity int) logr.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	z, err := cfg.Build()
	if err != nil {
		// The production config only fails on bad output paths, which
		// cannot happen with the defaults.
		panic(err)
	}
	return zapr.NewLogger(z)
}

// NewDevLogger returns a console logger for interactive use.
func NewDevLogger(verbosity int) logr.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.Level(-verbosity))
	return zapr.NewLogger(zap.New(core))
}

// NewTestLogger returns a verbose console logger for tests.
func NewTestLogger() logr.Logger {
	return NewDevLogger(TRACE)
}
