package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
)

// LogSender writes messages to the log instead of sending them. It is used
// when email delivery is disabled.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg port.EmailMessage) error {
	s.logger.Info("Email delivery disabled, message logged",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)))
	return nil
}

var _ port.EmailSender = (*LogSender)(nil)
