// Package email implements the EmailSender capability via SendGrid.
package email

import (
	"context"
	"fmt"

	"github.com/driveagent/driveagent/pkg/contracts"
	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender implements contracts.EmailSender via the SendGrid v3 Mail Send API.
type Sender struct {
	client      *sendgrid.Client
	fromAddress string
	fromName    string
}

// New constructs a Sender using the given SendGrid API key and from-address.
func New(apiKey, fromAddress string) *Sender {
	return &Sender{
		client:      sendgrid.NewSendClient(apiKey),
		fromAddress: fromAddress,
		fromName:    "DriveAgent",
	}
}

var _ contracts.EmailSender = (*Sender)(nil)

// Send delivers a single HTML email. It does not retry; callers that need
// at-least-once delivery semantics should treat failure as recoverable.
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	from := mail.NewEmail(s.fromName, s.fromAddress)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, htmlBody, htmlBody)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
