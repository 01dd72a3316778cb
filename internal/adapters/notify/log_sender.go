package notify

import (
	"context"

	"langlearn-api/internal/pkg/logging"
)

// LogSender writes emails to the request logger instead of delivering
// them. Used when no broker is configured.
type LogSender struct{}

// NewLogSender creates a new log sender
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the email
func (LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	logging.FromContext(ctx).Info("email not delivered, no broker configured",
		"to", to,
		"subject", subject,
	)
	logging.FromContext(ctx).Debug("email body", "to", to, "html", htmlBody)
	return nil
}
