package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. level accepts zap's textual levels
// ("debug", "info", "warn", "error"); empty defaults to info.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
