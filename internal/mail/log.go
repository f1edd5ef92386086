package mail

import (
	"context"
	"log/slog"
	"regexp"
)

var codePattern = regexp.MustCompile(`\b[0-9]{6}\b`)

// LogMailer writes emails to the log instead of sending them. Only for
// DEV_MODE, where it is the way to read verification codes locally.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Warn("dev mode: email not sent",
		"to", to,
		"subject", subject,
		"code", codePattern.FindString(htmlBody),
	)
	return nil
}
