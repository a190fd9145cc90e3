package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"privacyweave/internal/app"
	"privacyweave/internal/auth"
	"privacyweave/internal/chatbot"
	"privacyweave/internal/domain"
	"privacyweave/internal/notify"
	"privacyweave/internal/storage"
	"privacyweave/internal/store"
)

type testEnv struct {
	ts    *httptest.Server
	store *store.MemoryStore
	app   *app.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	uploads, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	// Unconfigured senders: every notification is a soft skip.
	email := notify.NewEmailSender("", "", "", nil)
	whatsapp := notify.NewWhatsAppSender("", "", "", "")
	a := app.New(st, store.NewMemorySessionStore(), email, whatsapp, chatbot.NewEngine(st))

	srv, err := New(Config{
		App:      a,
		Email:    email,
		WhatsApp: whatsapp,
		Uploads:  uploads,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, store: st, app: a}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any, token string) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func (e *testEnv) loginAs(t *testing.T, username, password string, role domain.UserRole) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := e.store.CreateUser(domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	resp := e.postJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func TestCreateInquiry(t *testing.T) {
	e := newTestEnv(t)
	resp := e.postJSON(t, "/api/inquiries", map[string]string{
		"firstName": "Priya",
		"lastName":  "Raman",
		"email":     "priya@example.com",
		"company":   "Acme Health",
		"industry":  "healthcare",
		"message":   "We need a demo.",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["company"] != "Acme Health" || body["email"] != "priya@example.com" {
		t.Fatalf("entity fields not echoed: %+v", body)
	}
	meta, ok := body["_meta"].(map[string]any)
	if !ok {
		t.Fatalf("missing _meta: %+v", body)
	}
	// Email credentials are absent, so the flag must be false.
	if meta["emailNotificationSent"] != false || meta["whatsappNotificationSent"] != false {
		t.Fatalf("unexpected _meta: %+v", meta)
	}
}

func TestCreateInquiryValidation(t *testing.T) {
	e := newTestEnv(t)
	resp := e.postJSON(t, "/api/inquiries", map[string]string{"firstName": "Priya"}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	fields, ok := body["fields"].(map[string]any)
	if !ok || fields["email"] == nil {
		t.Fatalf("expected field messages, got %+v", body)
	}
}

func TestCreateJobApplicationDefaultsType(t *testing.T) {
	e := newTestEnv(t)
	resp := e.postJSON(t, "/api/job-applications", map[string]string{
		"fullName":   "Arun Kumar",
		"email":      "arun@example.com",
		"phone":      "+91-9876543210",
		"position":   "Full Stack Developer",
		"experience": "1",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["applicationType"] != "job" {
		t.Fatalf("applicationType = %v, want job", body["applicationType"])
	}
}

func TestJobListings(t *testing.T) {
	e := newTestEnv(t)
	if err := store.EnsureSeedListings(e.store); err != nil {
		t.Fatalf("EnsureSeedListings: %v", err)
	}
	inactive, err := e.store.CreateJobListing(domain.JobListing{Title: "Closed Role", IsActive: false})
	if err != nil {
		t.Fatalf("CreateJobListing: %v", err)
	}

	resp := e.get(t, "/api/job-listings", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	var listings []domain.JobListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("got %d active listings, want 3", len(listings))
	}
	for _, l := range listings {
		if !l.IsActive {
			t.Fatalf("inactive listing leaked: %+v", l)
		}
	}

	resp = e.get(t, fmt.Sprintf("/api/job-listings/%d", inactive.ID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing by id status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.get(t, "/api/job-listings/9999", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing listing status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestConversationIdempotentAndFirstExchange(t *testing.T) {
	e := newTestEnv(t)

	resp := e.postJSON(t, "/api/chat/conversations", map[string]string{"sessionId": "chat_1_test"}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
	first := decodeBody(t, resp)

	resp = e.postJSON(t, "/api/chat/conversations", map[string]string{"sessionId": "chat_1_test"}, "")
	second := decodeBody(t, resp)
	if first["id"] != second["id"] {
		t.Fatalf("conversation ids differ: %v vs %v", first["id"], second["id"])
	}
	conversationID := int(first["id"].(float64))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	mw.WriteField("sender", "user")
	mw.WriteField("content", "hello")
	mw.Close()
	req, _ := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/chat/conversations/%d/messages", e.ts.URL, conversationID), &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	postResp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	if postResp.StatusCode != http.StatusCreated {
		t.Fatalf("post message status %d", postResp.StatusCode)
	}
	exchange := decodeBody(t, postResp)
	if exchange["userMessage"] == nil || exchange["botResponse"] == nil {
		t.Fatalf("expected user and bot messages, got %+v", exchange)
	}

	resp = e.get(t, fmt.Sprintf("/api/chat/conversations/%d/messages", conversationID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages status %d", resp.StatusCode)
	}
	defer resp.Body.Close()
	var messages []domain.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Sender != domain.SenderUser || messages[1].Sender != domain.SenderBot {
		t.Fatalf("wrong order: %v then %v", messages[0].Sender, messages[1].Sender)
	}
}

func TestChatAttachmentExtensionRejected(t *testing.T) {
	e := newTestEnv(t)
	resp := e.postJSON(t, "/api/chat/conversations", map[string]string{"sessionId": "chat_2_test"}, "")
	conversation := decodeBody(t, resp)
	conversationID := int(conversation["id"].(float64))

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	mw.WriteField("sender", "user")
	mw.WriteField("content", "my resume")
	fw, _ := mw.CreateFormFile("attachment", "resume.exe")
	fw.Write([]byte("not a resume"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/chat/conversations/%d/messages", e.ts.URL, conversationID), &form)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	postResp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("post message: %v", err)
	}
	defer postResp.Body.Close()
	if postResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", postResp.StatusCode)
	}

	messages, err := e.store.GetChatMessagesByConversation(conversationID)
	if err != nil {
		t.Fatalf("GetChatMessagesByConversation: %v", err)
	}
	if len(messages) != 0 {
		t.Fatal("rejected upload must not create a message row")
	}
}

func TestMessagesUnknownConversation(t *testing.T) {
	e := newTestEnv(t)
	resp := e.get(t, "/api/chat/conversations/123/messages", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestAdminRoutesForbidden(t *testing.T) {
	e := newTestEnv(t)

	// Unauthenticated.
	resp := e.get(t, "/api/admin/inquiries", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unauthenticated status %d, want 403", resp.StatusCode)
	}

	// Authenticated but not admin.
	userToken := e.loginAs(t, "visitor", "pw12345", domain.RoleUser)
	resp = e.get(t, "/api/admin/inquiries", userToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin status %d, want 403", resp.StatusCode)
	}
}

func TestAdminListsAndConfig(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.loginAs(t, "admin", "adminpw", domain.RoleAdmin)

	resp := e.postJSON(t, "/api/inquiries", map[string]string{
		"firstName": "Priya", "lastName": "Raman", "email": "p@example.com",
		"company": "Acme", "industry": "tech", "message": "demo",
	}, "")
	resp.Body.Close()

	resp = e.get(t, "/api/admin/inquiries", adminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin inquiries status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", body["count"])
	}

	resp = e.get(t, "/api/admin/email-config", adminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("email-config status %d", resp.StatusCode)
	}
	cfg := decodeBody(t, resp)
	if cfg["configured"] != false {
		t.Fatalf("unconfigured sender reported configured: %+v", cfg)
	}
	missing, _ := cfg["missingVariables"].([]any)
	if len(missing) != 3 {
		t.Fatalf("missingVariables = %v", missing)
	}

	resp = e.get(t, "/api/admin/whatsapp-config", adminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("whatsapp-config status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminTestEmailValidation(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.loginAs(t, "admin", "adminpw", domain.RoleAdmin)

	resp := e.postJSON(t, "/api/admin/test-email", map[string]string{"emailType": "newsletter"}, adminToken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}

	// Valid kind but unconfigured transport: the probe reports failure.
	resp = e.postJSON(t, "/api/admin/test-email", map[string]string{"emailType": "inquiry"}, adminToken)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", resp.StatusCode)
	}
}

func TestAdminResumeDownloadRedirectsExternalLink(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.loginAs(t, "admin", "adminpw", domain.RoleAdmin)

	application, err := e.store.CreateJobApplication(domain.JobApplication{
		FullName:        "Arun Kumar",
		Email:           "arun@example.com",
		Phone:           "1",
		Position:        "Dev",
		Experience:      "1",
		Resume:          domain.ExternalLink("https://example.com/resume.pdf"),
		ApplicationType: domain.ApplicationJob,
	})
	if err != nil {
		t.Fatalf("CreateJobApplication: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet,
		fmt.Sprintf("%s/api/admin/job-applications/%d/resume", e.ts.URL, application.ID), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET resume: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "https://example.com/resume.pdf" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestAuthMe(t *testing.T) {
	e := newTestEnv(t)
	token := e.loginAs(t, "admin", "adminpw", domain.RoleAdmin)

	resp := e.get(t, "/api/auth/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["username"] != "admin" || body["role"] != "admin" {
		t.Fatalf("unexpected me body: %+v", body)
	}

	resp = e.get(t, "/api/auth/me", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous me status %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, e.ts.URL+"/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	logoutResp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	io.Copy(io.Discard, logoutResp.Body)
	logoutResp.Body.Close()
	if logoutResp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status %d", logoutResp.StatusCode)
	}

	resp = e.get(t, "/api/auth/me", token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout status %d, want 401", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp := e.get(t, "/healthz", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		t.Fatalf("content type %q", resp.Header.Get("Content-Type"))
	}
}
