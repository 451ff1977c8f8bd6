package integrations

import (
	"context"
	"fmt"

	"frankiemoji/backend/internal/config"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSMS sends text messages from a fixed number.
type TwilioSMS struct {
	messages messageCreator
	from     string
}

// NewTwilioSMS returns nil unless the account, token and sender are all set.
func NewTwilioSMS(cfg config.TwilioConfig) *TwilioSMS {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSMS{messages: rest.Api, from: cfg.From}
}

// SendSMS sends body to an E.164 number. The Twilio client has no context
// support, so ctx is only checked before the call.
func (s *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)
	msg, err := s.messages.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if msg != nil && msg.ErrorCode != nil {
		return fmt.Errorf("twilio message error code %d", *msg.ErrorCode)
	}
	return nil
}
