package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"privacyweave/internal/domain"
)

// WhatsAppSender delivers staff notifications over the Twilio WhatsApp
// channel. Like the email sender, missing configuration means soft skips.
type WhatsAppSender struct {
	accountSID string
	authToken  string
	fromNumber string
	toNumber   string

	// create is swappable in tests; defaults to the Twilio REST API.
	create func(body string) (string, error)
}

// WhatsAppConfig is the admin status view. The auth token is never included.
type WhatsAppConfig struct {
	Configured       bool     `json:"configured"`
	AccountSID       string   `json:"accountSid"`
	PhoneNumber      string   `json:"phoneNumber"`
	RecipientNumber  string   `json:"recipientNumber"`
	MissingVariables []string `json:"missingVariables"`
}

// NewWhatsAppSender builds a sender from configuration values.
func NewWhatsAppSender(accountSID, authToken, fromNumber, toNumber string) *WhatsAppSender {
	s := &WhatsAppSender{
		accountSID: strings.TrimSpace(accountSID),
		authToken:  strings.TrimSpace(authToken),
		fromNumber: strings.TrimSpace(fromNumber),
		toNumber:   strings.TrimSpace(toNumber),
	}
	s.create = s.createTwilio
	return s
}

// Configured reports whether all required Twilio settings are present.
func (s *WhatsAppSender) Configured() bool {
	return s.accountSID != "" && s.authToken != "" && s.fromNumber != "" && s.toNumber != ""
}

// Config returns the redacted configuration status.
func (s *WhatsAppSender) Config() WhatsAppConfig {
	missing := make([]string, 0, 4)
	if s.accountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if s.authToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if s.fromNumber == "" {
		missing = append(missing, "TWILIO_PHONE_NUMBER")
	}
	if s.toNumber == "" {
		missing = append(missing, "WHATSAPP_RECIPIENT_NUMBER")
	}
	return WhatsAppConfig{
		Configured:       s.Configured(),
		AccountSID:       s.accountSID,
		PhoneNumber:      s.fromNumber,
		RecipientNumber:  s.toNumber,
		MissingVariables: missing,
	}
}

// SendInquiry notifies staff of a new demo request.
func (s *WhatsAppSender) SendInquiry(inquiry domain.Inquiry) bool {
	if !s.Configured() {
		slog.Warn("whatsapp notification not sent: service not configured")
		return false
	}
	body := fmt.Sprintf("*New Inquiry/Demo Request*\n\n*Name:* %s %s\n*Company:* %s\n*Email:* %s\n*Message:* %s",
		inquiry.FirstName, inquiry.LastName, inquiry.Company, inquiry.Email, inquiry.Message)
	sid, err := s.create(body)
	if err != nil {
		slog.Error("send whatsapp inquiry notification", "err", err)
		return false
	}
	slog.Info("whatsapp notification sent for inquiry", "sid", sid)
	return true
}

// SendJobApplication notifies staff of a new application. Externally
// hosted resumes are linked in the message; local uploads travel by
// email attachment instead, so only a note is included here.
func (s *WhatsAppSender) SendJobApplication(app domain.JobApplication) bool {
	if !s.Configured() {
		slog.Warn("whatsapp notification not sent: service not configured")
		return false
	}

	kind := "Job"
	if app.ApplicationType == domain.ApplicationInternship {
		kind = "Internship"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*New %s Application*\n\n*Name:* %s\n*Position:* %s\n*Email:* %s\n*Phone:* %s\n*Experience:* %s",
		kind, app.FullName, app.Position, app.Email, app.Phone, app.Experience)

	if app.ApplicationType == domain.ApplicationInternship {
		fmt.Fprintf(&b, "\n*Education:* %s", app.Education)
		fmt.Fprintf(&b, "\n*University:* %s", app.University)
		fmt.Fprintf(&b, "\n*Graduation Year:* %s", app.GraduationYear)
		fmt.Fprintf(&b, "\n*Availability:* %s", app.AvailabilityDate)
	}
	if app.Message != "" {
		fmt.Fprintf(&b, "\n\n*Message:*\n%s", app.Message)
	}
	switch app.Resume.Kind {
	case domain.ResumeExternalLink:
		fmt.Fprintf(&b, "\n\n*Resume Link:* %s", app.Resume.Ref)
	case domain.ResumeLocalFile:
		b.WriteString("\n\n*Resume:* uploaded via chat (sent by email)")
	}

	sid, err := s.create(b.String())
	if err != nil {
		slog.Error("send whatsapp job application notification", "err", err)
		return false
	}
	slog.Info("whatsapp notification sent for job application", "sid", sid)
	return true
}

// SendTest sends a canned probe message.
func (s *WhatsAppSender) SendTest() bool {
	if !s.Configured() {
		slog.Warn("test whatsapp notification not sent: service not configured")
		return false
	}
	body := "*Test Notification from PrivacyWeave*\n\nThis is a test message to verify that WhatsApp notifications are working correctly. If you received this, the service is configured properly!"
	sid, err := s.create(body)
	if err != nil {
		slog.Error("send test whatsapp notification", "err", err)
		return false
	}
	slog.Info("test whatsapp notification sent", "sid", sid)
	return true
}

func (s *WhatsAppSender) createTwilio(body string) (string, error) {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: s.accountSID,
		Password: s.authToken,
	})
	params := &openapi.CreateMessageParams{}
	params.SetBody(body)
	params.SetFrom("whatsapp:" + s.fromNumber)
	params.SetTo("whatsapp:" + s.toNumber)
	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
