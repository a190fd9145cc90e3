package notify

import (
	"errors"
	"strings"
	"testing"

	"privacyweave/internal/domain"
)

func TestWhatsAppSenderSoftSkipWhenUnconfigured(t *testing.T) {
	s := NewWhatsAppSender("", "", "", "")
	s.create = func(string) (string, error) {
		t.Fatal("unconfigured sender must not touch the transport")
		return "", nil
	}
	if s.SendInquiry(domain.Inquiry{Company: "Acme"}) {
		t.Fatal("soft skip must report false")
	}
	cfg := s.Config()
	if cfg.Configured || len(cfg.MissingVariables) != 4 {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestWhatsAppSenderInquiryBody(t *testing.T) {
	s := NewWhatsAppSender("AC123", "token", "+14155550100", "+919876543210")
	var body string
	s.create = func(b string) (string, error) {
		body = b
		return "SM123", nil
	}
	ok := s.SendInquiry(domain.Inquiry{
		FirstName: "Priya",
		LastName:  "Raman",
		Company:   "Acme Health",
		Email:     "priya@example.com",
		Message:   "demo please",
	})
	if !ok {
		t.Fatal("send must report success")
	}
	if !strings.Contains(body, "*New Inquiry/Demo Request*") || !strings.Contains(body, "Acme Health") {
		t.Fatalf("body = %q", body)
	}
}

func TestWhatsAppSenderInternshipExtras(t *testing.T) {
	s := NewWhatsAppSender("AC123", "token", "+14155550100", "+919876543210")
	var body string
	s.create = func(b string) (string, error) {
		body = b
		return "SM123", nil
	}
	s.SendJobApplication(domain.JobApplication{
		FullName:        "Arun Kumar",
		Position:        "Privacy Engineering Intern",
		ApplicationType: domain.ApplicationInternship,
		University:      "PSG Tech",
		GraduationYear:  "2026",
		Resume:          domain.LocalFile("uploads/attachment-1.pdf"),
	})
	if !strings.Contains(body, "*New Internship Application*") {
		t.Fatalf("body = %q", body)
	}
	if !strings.Contains(body, "PSG Tech") || !strings.Contains(body, "2026") {
		t.Fatalf("internship extras missing: %q", body)
	}
	// Local uploads travel by email attachment, not as a link here.
	if strings.Contains(body, "uploads/attachment-1.pdf") {
		t.Fatalf("local path leaked into message: %q", body)
	}
	if !strings.Contains(body, "uploaded via chat") {
		t.Fatalf("missing upload note: %q", body)
	}
}

func TestWhatsAppSenderExternalResumeLink(t *testing.T) {
	s := NewWhatsAppSender("AC123", "token", "+14155550100", "+919876543210")
	var body string
	s.create = func(b string) (string, error) {
		body = b
		return "SM123", nil
	}
	s.SendJobApplication(domain.JobApplication{
		FullName:        "Arun Kumar",
		Position:        "Dev",
		ApplicationType: domain.ApplicationJob,
		Resume:          domain.ExternalLink("https://example.com/cv.pdf"),
	})
	if !strings.Contains(body, "*Resume Link:* https://example.com/cv.pdf") {
		t.Fatalf("body = %q", body)
	}
}

func TestWhatsAppSenderTransportFailure(t *testing.T) {
	s := NewWhatsAppSender("AC123", "token", "+14155550100", "+919876543210")
	s.create = func(string) (string, error) { return "", errors.New("twilio down") }
	if s.SendTest() {
		t.Fatal("transport failure must report false, not propagate")
	}
}
