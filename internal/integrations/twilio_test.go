package integrations

import (
	"context"
	"errors"
	"testing"

	"frankiemoji/backend/internal/config"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageCreator struct {
	params []*openapi.CreateMessageParams
	resp   *openapi.ApiV2010Message
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	return f.resp, f.err
}

func TestTwilioSendSMS(t *testing.T) {
	t.Parallel()

	fake := &fakeMessageCreator{resp: &openapi.ApiV2010Message{}}
	s := &TwilioSMS{messages: fake, from: "+15550001111"}

	if err := s.SendSMS(context.Background(), "+15551234567", "hello"); err != nil {
		t.Fatalf("SendSMS(): %v", err)
	}
	if len(fake.params) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.params))
	}
	p := fake.params[0]
	if *p.To != "+15551234567" || *p.From != "+15550001111" || *p.Body != "hello" {
		t.Fatalf("unexpected params: to=%s from=%s body=%s", *p.To, *p.From, *p.Body)
	}
}

func TestTwilioSendSMSErrors(t *testing.T) {
	t.Parallel()

	code := 21211
	cases := map[string]*fakeMessageCreator{
		"api error":     {err: errors.New("invalid number")},
		"message error": {resp: &openapi.ApiV2010Message{ErrorCode: &code}},
	}
	for name, fake := range cases {
		s := &TwilioSMS{messages: fake, from: "+15550001111"}
		if err := s.SendSMS(context.Background(), "+15551234567", "hello"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeMessageCreator{}
	s := &TwilioSMS{messages: fake, from: "+15550001111"}
	if err := s.SendSMS(ctx, "+15551234567", "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fake.params) != 0 {
		t.Fatalf("cancelled send must not reach twilio")
	}
}

func TestNewTwilioSMSRequiresConfig(t *testing.T) {
	t.Parallel()

	if s := NewTwilioSMS(config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok"}); s != nil {
		t.Fatalf("expected nil sender without from number")
	}
	if s := NewTwilioSMS(config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", From: "+15550001111"}); s == nil {
		t.Fatalf("expected sender with full config")
	}
}
