package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers mail through the SendGrid API.
type SendGridMailer struct {
	client   *sendgrid.Client
	sender   string
	fromName string
}

func NewSendGridMailer(apiKey, sender, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		sender:   sender,
		fromName: fromName,
	}
}

func (m *SendGridMailer) SendPasswordReset(ctx context.Context, to, firstName, resetURL string) error {
	from := mail.NewEmail(m.fromName, m.sender)
	subject := "Your password reset token (valid for 10 minutes)"

	plain := fmt.Sprintf(
		"Hi %s,\n\nForgot your password? Submit a PATCH request with your new password to:\n%s\n\nIf you didn't forget your password, please ignore this email.",
		firstName, resetURL,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Forgot your password? Submit a PATCH request with your new password to:<br><a href=%q>%s</a></p><p>If you didn't forget your password, please ignore this email.</p>",
		firstName, resetURL, resetURL,
	)

	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), plain, html)
	response, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: unexpected status %d", response.StatusCode)
	}
	return nil
}
