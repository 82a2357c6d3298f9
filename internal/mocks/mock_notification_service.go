package mocks

import "github.com/you/chainguard/domain"

// SentMessage is one verification code delivery attempt
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockNotificationService captures code deliveries instead of reaching
// Twilio. Attempts are recorded even when the configured func fails them.
type MockNotificationService struct {
	SendSMSFunc   func(to, message string) error
	SendEmailFunc func(to, subject, body string) error

	SMS    []SentMessage
	Emails []SentMessage
}

// NewMockNotificationService creates a MockNotificationService that delivers everything
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendSMS records a text to the signup phone
func (m *MockNotificationService) SendSMS(to, message string) error {
	m.SMS = append(m.SMS, SentMessage{To: to, Body: message})
	if m.SendSMSFunc == nil {
		return nil
	}
	return m.SendSMSFunc(to, message)
}

// SendEmail records a mail to the signup address
func (m *MockNotificationService) SendEmail(to, subject, body string) error {
	m.Emails = append(m.Emails, SentMessage{To: to, Subject: subject, Body: body})
	if m.SendEmailFunc == nil {
		return nil
	}
	return m.SendEmailFunc(to, subject, body)
}

var _ domain.NotificationService = (*MockNotificationService)(nil)
