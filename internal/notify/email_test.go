package notify

import (
	"errors"
	"strings"
	"testing"

	gomail "gopkg.in/gomail.v2"

	"privacyweave/internal/domain"
)

func TestEmailSenderSoftSkipWhenUnconfigured(t *testing.T) {
	s := NewEmailSender("", "", "", nil)
	if s.Configured() {
		t.Fatal("empty sender must not report configured")
	}
	s.send = func(*gomail.Message) error {
		t.Fatal("unconfigured sender must not touch the transport")
		return nil
	}
	if s.SendInquiry(domain.Inquiry{Company: "Acme"}) {
		t.Fatal("soft skip must report false")
	}
}

func TestEmailSenderConfigRedaction(t *testing.T) {
	s := NewEmailSender("gmail", "notifications@privacyweave.in", "secret", []string{"a@example.com"})
	cfg := s.Config()
	if !cfg.Configured {
		t.Fatal("sender with all settings must report configured")
	}
	if cfg.User != "not...privacyweave.in" {
		t.Fatalf("redacted user = %q", cfg.User)
	}
	if len(cfg.MissingVariables) != 0 {
		t.Fatalf("missing = %v", cfg.MissingVariables)
	}
	if strings.Contains(cfg.User, "secret") {
		t.Fatal("config view leaked the password")
	}
}

func TestEmailSenderMissingVariables(t *testing.T) {
	s := NewEmailSender("gmail", "", "", nil)
	cfg := s.Config()
	if cfg.Configured {
		t.Fatal("partial settings must not report configured")
	}
	want := []string{"EMAIL_USER", "EMAIL_PASSWORD"}
	if len(cfg.MissingVariables) != len(want) {
		t.Fatalf("missing = %v", cfg.MissingVariables)
	}
	for i, name := range want {
		if cfg.MissingVariables[i] != name {
			t.Fatalf("missing = %v, want %v", cfg.MissingVariables, want)
		}
	}
}

func TestEmailSenderRecipientsFallback(t *testing.T) {
	s := NewEmailSender("gmail", "u@example.com", "pw", nil)
	if got := s.Recipients(); len(got) != 2 {
		t.Fatalf("default recipients = %v", got)
	}
	s = NewEmailSender("gmail", "u@example.com", "pw", []string{"hr@example.com"})
	if got := s.Recipients(); len(got) != 1 || got[0] != "hr@example.com" {
		t.Fatalf("configured recipients = %v", got)
	}
}

func TestEmailSenderSendInquiry(t *testing.T) {
	s := NewEmailSender("gmail", "u@example.com", "pw", []string{"hr@example.com"})
	var sent *gomail.Message
	s.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}
	ok := s.SendInquiry(domain.Inquiry{
		FirstName: "Priya",
		Company:   "Acme Health",
		Email:     "priya@example.com",
	})
	if !ok {
		t.Fatal("send must report success")
	}
	if sent == nil {
		t.Fatal("transport not invoked")
	}
	subject := sent.GetHeader("Subject")
	if len(subject) != 1 || subject[0] != "New Demo Request: Acme Health" {
		t.Fatalf("subject = %v", subject)
	}
}

func TestEmailSenderTransportFailure(t *testing.T) {
	s := NewEmailSender("gmail", "u@example.com", "pw", nil)
	s.send = func(*gomail.Message) error { return errors.New("smtp down") }
	if s.SendInquiry(domain.Inquiry{Company: "Acme"}) {
		t.Fatal("transport failure must report false, not propagate")
	}
}

func TestEmailSenderJobApplicationSubject(t *testing.T) {
	s := NewEmailSender("gmail", "u@example.com", "pw", nil)
	var sent *gomail.Message
	s.send = func(m *gomail.Message) error {
		sent = m
		return nil
	}
	ok := s.SendJobApplication(domain.JobApplication{
		FullName:        "Arun Kumar",
		Position:        "AI/ML Engineer",
		Resume:          domain.ExternalLink("https://example.com/cv.pdf"),
		ApplicationType: domain.ApplicationJob,
	})
	if !ok {
		t.Fatal("send must report success")
	}
	subject := sent.GetHeader("Subject")
	if len(subject) != 1 || subject[0] != "New Career Application: AI/ML Engineer" {
		t.Fatalf("subject = %v", subject)
	}
}

func TestEmailSenderSendTestKinds(t *testing.T) {
	s := NewEmailSender("gmail", "u@example.com", "pw", nil)
	s.send = func(*gomail.Message) error { return nil }
	if !s.SendTest("inquiry") || !s.SendTest("job-application") {
		t.Fatal("known kinds must send")
	}
	if s.SendTest("newsletter") {
		t.Fatal("unknown kind must report false")
	}
}

func TestSMTPEndpoint(t *testing.T) {
	host, port := smtpEndpoint("gmail")
	if host != "smtp.gmail.com" || port != 587 {
		t.Fatalf("gmail endpoint %s:%d", host, port)
	}
	host, port = smtpEndpoint("smtp.internal.example.com")
	if host != "smtp.internal.example.com" || port != 587 {
		t.Fatalf("literal endpoint %s:%d", host, port)
	}
}
