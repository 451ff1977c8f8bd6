package integrations

import (
	"context"
	"fmt"

	"frankiemoji/backend/internal/config"
	"frankiemoji/backend/internal/orders"

	"github.com/resend/resend-go/v2"
)

// ResendMailer sends plain-text email through Resend.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer returns nil when no API key is configured so the caller can
// leave the email channel disabled.
func NewResendMailer(cfg config.ResendConfig) *ResendMailer {
	if cfg.APIKey == "" {
		return nil
	}
	return newResendMailer(resend.NewClient(cfg.APIKey), cfg.From)
}

func newResendMailer(client *resend.Client, from string) *ResendMailer {
	return &ResendMailer{client: client, from: from}
}

func (m *ResendMailer) SendEmail(ctx context.Context, msg orders.EmailMessage) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
