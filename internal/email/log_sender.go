package email

import (
	"context"

	"github.com/redmonkez12/go-auth-flow/internal/logging"
)

// LogSender writes verification links to the log instead of sending mail.
// Used when no SMTP relay is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendVerificationEmail(_ context.Context, toEmail, name, link string) error {
	s.logger.Info("verification email (not sent, SMTP disabled)",
		"email", toEmail,
		"name", name,
		"link", link,
	)
	return nil
}
