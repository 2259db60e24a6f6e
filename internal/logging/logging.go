// Package logging builds the zap loggers shared by the CLI, the simulator and
// the IK solver.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the logger type passed between packages.
type Logger = *zap.SugaredLogger

// NewLogger returns a console logger named name. debug lowers the level to Debug.
func NewLogger(name string, debug bool) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	logger, err := cfg.Build()
	if err != nil {
		return NewNop()
	}
	return logger.Named(name).Sugar()
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return zap.NewNop().Sugar()
}

// NewTestLogger returns a debug logger that writes through the test's log.
// Both *testing.T and GinkgoT() satisfy zaptest.TestingT.
func NewTestLogger(tb zaptest.TestingT) Logger {
	return zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()
}

// OrNop returns l, or a no-op logger if l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNop()
	}
	return l
}
