package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"privacyweave/internal/app"
	"privacyweave/internal/chatbot"
	"privacyweave/internal/notify"
	"privacyweave/internal/storage"
	"privacyweave/internal/store"
)

func TestSubmitRateLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	st := store.NewMemoryStore()
	uploads, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	email := notify.NewEmailSender("", "", "", nil)
	whatsapp := notify.NewWhatsAppSender("", "", "", "")
	a := app.New(st, store.NewMemorySessionStore(), email, whatsapp, chatbot.NewEngine(st))

	srv, err := New(Config{
		App:                      a,
		Email:                    email,
		WhatsApp:                 whatsapp,
		Uploads:                  uploads,
		RedisAddr:                redis.Addr(),
		SubmitRateLimitPerMinute: 1,
		LoginRateLimitPerMinute:  10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := []byte(`{"firstName":"Priya","lastName":"Raman","email":"p@example.com","company":"Acme","industry":"tech","message":"demo"}`)
	resp1, err := http.Post(ts.URL+"/api/inquiries", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp1.Body.Close()
	if resp1.StatusCode != http.StatusCreated {
		t.Fatalf("first request expected 201, got %d", resp1.StatusCode)
	}

	resp2, err := http.Post(ts.URL+"/api/inquiries", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", resp2.StatusCode)
	}
	if resp2.Header.Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", resp2.Header.Get("Retry-After"))
	}
}

func TestNoRedisMeansNoRateLimit(t *testing.T) {
	st := store.NewMemoryStore()
	uploads, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	email := notify.NewEmailSender("", "", "", nil)
	whatsapp := notify.NewWhatsAppSender("", "", "", "")
	a := app.New(st, store.NewMemorySessionStore(), email, whatsapp, chatbot.NewEngine(st))

	srv, err := New(Config{
		App:                      a,
		Email:                    email,
		WhatsApp:                 whatsapp,
		Uploads:                  uploads,
		SubmitRateLimitPerMinute: 1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := []byte(`{"firstName":"Priya","lastName":"Raman","email":"p@example.com","company":"Acme","industry":"tech","message":"demo"}`)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(ts.URL+"/api/inquiries", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("request %d expected 201, got %d", i, resp.StatusCode)
		}
	}
}
