package auth

import "context"

// Mailer delivers an HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
