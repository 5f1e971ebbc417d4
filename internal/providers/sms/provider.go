package sms

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidRecipient = errors.New("invalid_sms_recipient")

var Module = fx.Module("providers.sms",
	fx.Provide(NewFromConfig),
)

type Provider interface {
	Send(ctx context.Context, to, body string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to, body string) error {
	return nil
}

type TwilioProvider struct {
	client *twilio.RestClient
	from   string
}

func NewTwilio(accountSID, authToken, from string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{client: client, from: from}
}

func (p *TwilioProvider) Send(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrInvalidRecipient
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetBody(body)
	_, err := p.client.Api.CreateMessage(params)
	return err
}

// NewFromConfig returns a twilio sender when credentials are set.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	sms := cfg.SMS
	if sms.TwilioAccountSID == "" || sms.TwilioAuthToken == "" || sms.TwilioFromNumber == "" {
		log.Info("twilio not configured, sms disabled")
		return &NoOpProvider{}
	}
	return NewTwilio(sms.TwilioAccountSID, sms.TwilioAuthToken, sms.TwilioFromNumber)
}
