package twilio

import (
	"github.com/crisislink/crisislink/server/logger"
	"github.com/crisislink/crisislink/shared"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var logg = logger.NewLogger()

type ClientWrapper struct {
	client   *twilio.RestClient
	config   shared.TwilioConfig
	testMode bool
}

// NewClient wraps the Twilio SMS API. With 'testMode' set, messages are
// logged instead of dispatched, so tests & dev servers never need real
// credentials.
func NewClient(config shared.TwilioConfig, testMode bool) *ClientWrapper {
	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &ClientWrapper{
		client:   client,
		config:   config,
		testMode: testMode,
	}
}

func (cw *ClientWrapper) SendMessage(to, msg string) error {
	if cw.testMode {
		logg.Infof("[test mode] SMS to %v: %v", to, msg)
		return nil
	}

	params := &openapi.CreateMessageParams{}
	params.SetMessagingServiceSid(cw.config.MessagingServiceSid)
	params.SetTo(to)
	params.SetBody(msg)

	resp, err := cw.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return err
	}

	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		logg.Errorf("twilio message to %v returned: %v", to, *resp.ErrorMessage)
	}

	return nil
}
