package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// New builds a zap logger for the given mode ("dev" or "prod").
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return cfg.Build()
}

// Install makes z the backend of the default slog logger and returns it.
func Install(z *zap.Logger) *slog.Logger {
	l := slog.New(zapslog.NewHandler(z.Core()))
	slog.SetDefault(l)
	return l
}

// Setup builds a logger for mode and installs it as the slog default.
// The returned func flushes buffered entries.
func Setup(mode string) (func(), error) {
	z, err := New(mode)
	if err != nil {
		return nil, err
	}
	Install(z)
	return func() { _ = z.Sync() }, nil
}
