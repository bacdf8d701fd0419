package mail

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/mrz1836/postmark"

	apperrors "github.com/KiritoEM/safeo-api/internal/errors"
)

// PostmarkConfig holds Postmark credentials and the sender identity.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	FromAddress  string
	ReplyTo      string
}

// PostmarkSender implements Sender with Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	config PostmarkConfig
}

// NewPostmarkSender creates a PostmarkSender. The server token and a valid
// from address are required.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, apperrors.Wrap(ErrInvalidConfig, "postmark server token is required")
	}
	if _, err := mail.ParseAddress(cfg.FromAddress); err != nil {
		return nil, apperrors.Wrap(ErrInvalidConfig, "from address must be a valid email address")
	}
	if cfg.ReplyTo == "" {
		cfg.ReplyTo = cfg.FromAddress
	}

	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// Send implements Sender. Tracking is disabled since messages carry one-time codes.
func (p *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.config.FromAddress,
		ReplyTo:    p.config.ReplyTo,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTMLBody,
		TrackOpens: false,
	})
	if err != nil {
		return apperrors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return apperrors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
