package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	gomail "gopkg.in/gomail.v2"

	"privacyweave/internal/domain"
)

// Recipients used when EMAIL_RECIPIENTS is unset.
var defaultRecipients = []string{"sadhanaa2326@gmail.com", "mittal21jiya@gmail.com"}

// EmailSender delivers transactional notifications over SMTP. A sender
// without credentials is valid: every send becomes a soft skip.
type EmailSender struct {
	service    string
	user       string
	password   string
	recipients []string

	// send is swappable in tests; defaults to SMTP delivery.
	send func(m *gomail.Message) error
}

// EmailConfig is the admin status view. It never exposes secrets.
type EmailConfig struct {
	Configured       bool     `json:"configured"`
	Service          string   `json:"service"`
	User             string   `json:"user"`
	Recipients       []string `json:"recipients"`
	MissingVariables []string `json:"missingVariables"`
}

// NewEmailSender builds a sender from configuration values.
func NewEmailSender(service, user, password string, recipients []string) *EmailSender {
	s := &EmailSender{
		service:    strings.TrimSpace(service),
		user:       strings.TrimSpace(user),
		password:   password,
		recipients: recipients,
	}
	s.send = s.sendSMTP
	return s
}

// Configured reports whether all required email settings are present.
func (s *EmailSender) Configured() bool {
	return s.service != "" && s.user != "" && s.password != ""
}

// Config returns the redacted configuration status.
func (s *EmailSender) Config() EmailConfig {
	cfg := EmailConfig{
		Configured: s.Configured(),
		Service:    s.service,
		Recipients: s.Recipients(),
	}
	if cfg.Service == "" {
		cfg.Service = "Not configured"
	}
	if s.user != "" {
		cfg.User = redactAddress(s.user)
	} else {
		cfg.User = "Not configured"
	}
	missing := make([]string, 0, 3)
	if s.service == "" {
		missing = append(missing, "EMAIL_SERVICE")
	}
	if s.user == "" {
		missing = append(missing, "EMAIL_USER")
	}
	if s.password == "" {
		missing = append(missing, "EMAIL_PASSWORD")
	}
	cfg.MissingVariables = missing
	return cfg
}

// Recipients returns the configured list, falling back to defaults.
func (s *EmailSender) Recipients() []string {
	if len(s.recipients) > 0 {
		return s.recipients
	}
	return defaultRecipients
}

// SendInquiry notifies staff of a new demo request. Returns false on a
// soft skip (unconfigured) or transport failure; never an error.
func (s *EmailSender) SendInquiry(inquiry domain.Inquiry) bool {
	if !s.Configured() {
		slog.Warn("email credentials not configured, skipping notification")
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", s.Recipients()...)
	m.SetHeader("Subject", fmt.Sprintf("New Demo Request: %s", inquiry.Company))

	submitted := inquiry.CreatedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	text := fmt.Sprintf(`New Demo Request Received:

First Name: %s
Last Name: %s
Email: %s
Company: %s
Industry: %s

Message:
%s

Submitted on: %s
`, inquiry.FirstName, inquiry.LastName, inquiry.Email, inquiry.Company, inquiry.Industry, inquiry.Message, submitted.Format(time.RFC1123))

	html := fmt.Sprintf(`<h2>New Demo Request Received</h2>

<p><strong>First Name:</strong> %s</p>
<p><strong>Last Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Company:</strong> %s</p>
<p><strong>Industry:</strong> %s</p>

<h3>Message:</h3>
<p>%s</p>

<p><em>Submitted on: %s</em></p>
`, inquiry.FirstName, inquiry.LastName, inquiry.Email, inquiry.Company, inquiry.Industry,
		strings.ReplaceAll(inquiry.Message, "\n", "<br>"), submitted.Format(time.RFC1123))

	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	if err := s.send(m); err != nil {
		slog.Error("send inquiry email", "company", inquiry.Company, "err", err)
		return false
	}
	slog.Info("inquiry email sent", "company", inquiry.Company)
	return true
}

// SendJobApplication notifies staff of a new application. A resume stored
// on the local disk is attached; an external link is mentioned instead.
func (s *EmailSender) SendJobApplication(app domain.JobApplication) bool {
	if !s.Configured() {
		slog.Warn("email credentials not configured, skipping notification")
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.user)
	m.SetHeader("To", s.Recipients()...)
	m.SetHeader("Subject", fmt.Sprintf("New Career Application: %s", app.Position))

	message := app.Message
	if message == "" {
		message = "No cover letter provided"
	}
	resumeNote := "Not provided"
	switch app.Resume.Kind {
	case domain.ResumeLocalFile:
		resumeNote = "Attached"
	case domain.ResumeExternalLink:
		resumeNote = app.Resume.Ref
	}
	submitted := app.CreatedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}

	text := fmt.Sprintf(`New Job Application Received:

Full Name: %s
Email: %s
Phone: %s
Position: %s
Experience: %s years

Message:
%s

Resume: %s

Submitted on: %s
`, app.FullName, app.Email, app.Phone, app.Position, app.Experience, message, resumeNote, submitted.Format(time.RFC1123))

	html := fmt.Sprintf(`<h2>New Job Application Received</h2>

<p><strong>Full Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Phone:</strong> %s</p>
<p><strong>Position:</strong> %s</p>
<p><strong>Experience:</strong> %s years</p>

<h3>Cover Letter:</h3>
<p>%s</p>

<p><strong>Resume:</strong> %s</p>

<p><em>Submitted on: %s</em></p>
`, app.FullName, app.Email, app.Phone, app.Position, app.Experience,
		strings.ReplaceAll(message, "\n", "<br>"), resumeNote, submitted.Format(time.RFC1123))

	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)

	// Only local uploads can be attached; links travel in the body.
	if app.Resume.Kind == domain.ResumeLocalFile && app.Resume.Ref != "" {
		name := strings.ReplaceAll(app.FullName, " ", "_") + "_Resume.pdf"
		m.Attach(app.Resume.Ref, gomail.Rename(name))
	}

	if err := s.send(m); err != nil {
		slog.Error("send job application email", "position", app.Position, "err", err)
		return false
	}
	slog.Info("job application email sent", "position", app.Position)
	return true
}

// SendTest sends a canned notification of the given kind so admins can
// probe the configuration. Kind is "inquiry" or "job-application".
func (s *EmailSender) SendTest(kind string) bool {
	switch kind {
	case "inquiry":
		return s.SendInquiry(domain.Inquiry{
			FirstName: "Test",
			LastName:  "User",
			Email:     "test@example.com",
			Company:   "Test Company",
			Industry:  "technology",
			Message:   "This is a test email sent from the admin panel.",
			CreatedAt: time.Now(),
		})
	case "job-application":
		return s.SendJobApplication(domain.JobApplication{
			FullName:        "Test Applicant",
			Email:           "test@example.com",
			Phone:           "+91-1234567890",
			Position:        "Test Position",
			Experience:      "1",
			Message:         "This is a test job application email sent from the admin panel.",
			ApplicationType: domain.ApplicationJob,
			CreatedAt:       time.Now(),
		})
	}
	return false
}

func (s *EmailSender) sendSMTP(m *gomail.Message) error {
	host, port := smtpEndpoint(s.service)
	d := gomail.NewDialer(host, port, s.user, s.password)
	return d.DialAndSend(m)
}

// smtpEndpoint maps a service name to its SMTP host and port. An unknown
// value is treated as a literal hostname on the submission port.
func smtpEndpoint(service string) (string, int) {
	switch strings.ToLower(service) {
	case "gmail":
		return "smtp.gmail.com", 587
	case "outlook", "hotmail":
		return "smtp-mail.outlook.com", 587
	case "yahoo":
		return "smtp.mail.yahoo.com", 465
	default:
		return service, 587
	}
}

// redactAddress keeps the first three characters and the domain.
func redactAddress(addr string) string {
	local := addr
	domainPart := ""
	if at := strings.Index(addr, "@"); at >= 0 {
		local = addr[:at]
		domainPart = addr[at+1:]
	}
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "..." + domainPart
}
