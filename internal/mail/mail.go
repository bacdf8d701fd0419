// Package mail delivers transactional email.
//
// Sender abstracts the transport: PostmarkSender talks to the Postmark API and
// DevSender writes messages to a local directory. OTPNotifier renders the OTP
// templates and hands them to a Sender.
package mail

import (
	"context"
	"net/mail"
	"strings"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

var (
	// ErrFailedToSendEmail indicates the transport rejected or could not deliver a message.
	ErrFailedToSendEmail = apperrors.Wrap(apperrors.ErrUnavailable, "failed to send email")

	// ErrInvalidConfig indicates the sender is missing required settings.
	ErrInvalidConfig = apperrors.Wrap(apperrors.ErrConfiguration, "invalid mail configuration")

	// ErrInvalidMessage indicates a message is missing a recipient, subject or body.
	ErrInvalidMessage = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid email message")
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"-"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the message has everything a transport needs.
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return apperrors.Wrap(ErrInvalidMessage, "recipient is not a valid address")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return apperrors.Wrap(ErrInvalidMessage, "subject is required")
	}
	if strings.TrimSpace(m.HTMLBody) == "" {
		return apperrors.Wrap(ErrInvalidMessage, "body is required")
	}
	return nil
}
