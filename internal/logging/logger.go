package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/flowline/internal/config"
)

// NewLogger builds the process-wide logger. Level falls back to info when
// LOG_LEVEL does not parse.
func NewLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger()
}
