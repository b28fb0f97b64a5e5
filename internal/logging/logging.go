package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Debug mode switches to the development
// encoder and lowers the level so the dev server's per-request noise is
// visible; everything else runs at Info with the production encoder.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// Nop returns a no-op logger for tests and optional dependencies.
func Nop() *zap.Logger {
	return zap.NewNop()
}
