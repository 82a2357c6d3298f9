package notifications

import (
	"fmt"
	"io"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/you/chainguard/domain"
)

// TwilioService implements domain.NotificationService. Without a sender
// number it only logs what it would have sent.
type TwilioService struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *log.Logger
}

// NewTwilioService creates a new Twilio notification service
func NewTwilioService(accountSID, authToken, fromNumber string, logger *log.Logger) *TwilioService {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioService{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

// Live reports whether messages leave the process
func (t *TwilioService) Live() bool {
	return t.fromNumber != ""
}

// SendSMS implements domain.NotificationService
func (t *TwilioService) SendSMS(to, message string) error {
	if !t.Live() {
		t.logger.Printf("MOCK_SMS: to=%s message=%q", to, message)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}

// SendEmail implements domain.NotificationService. Twilio carries SMS
// only; email is logged.
func (t *TwilioService) SendEmail(to, subject, body string) error {
	t.logger.Printf("MOCK_EMAIL: to=%s subject=%q body=%q", to, subject, body)
	return nil
}

var _ domain.NotificationService = (*TwilioService)(nil)
