package core

import (
	"context"

	"github.com/rs/zerolog"
)

// LogEmailSender is the development email transport: it logs the message
// instead of delivering it. Real delivery is wired in behind the same
// interface.
type LogEmailSender struct {
	logger zerolog.Logger
}

func NewLogEmailSender(logger zerolog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("email dispatched")
	return nil
}
