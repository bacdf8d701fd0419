package mail

import (
	"context"
	"time"
)

const (
	loginOTPSubject  = "Confirmation de connexion"
	signupOTPSubject = "Confirmation de la création de votre compte Safeo"
)

type otpTemplateData struct {
	Subject           string
	OTPCode           string
	ExpirationMinutes int
	Name              string
}

// OTPNotifier emails one-time passwords.
type OTPNotifier struct {
	sender   Sender
	renderer *Renderer
	expiry   time.Duration
}

// NewOTPNotifier creates an OTPNotifier. expiry is only displayed to the user.
func NewOTPNotifier(sender Sender, renderer *Renderer, expiry time.Duration) *OTPNotifier {
	return &OTPNotifier{sender: sender, renderer: renderer, expiry: expiry}
}

// SendLoginOTP emails a login code.
func (n *OTPNotifier) SendLoginOTP(ctx context.Context, to, code string) error {
	return n.send(ctx, to, TemplateLoginOTP, otpTemplateData{
		Subject: loginOTPSubject,
		OTPCode: code,
	})
}

// SendSignupOTP emails a signup confirmation code, greeting the user by name.
func (n *OTPNotifier) SendSignupOTP(ctx context.Context, to, name, code string) error {
	return n.send(ctx, to, TemplateSignupOTP, otpTemplateData{
		Subject: signupOTPSubject,
		OTPCode: code,
		Name:    name,
	})
}

func (n *OTPNotifier) send(ctx context.Context, to, name string, data otpTemplateData) error {
	data.ExpirationMinutes = int(n.expiry / time.Minute)

	body, err := n.renderer.Render(name, data)
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, Message{
		To:       to,
		Subject:  data.Subject,
		HTMLBody: body,
		Tag:      name,
	})
}
