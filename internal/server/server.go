package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"privacyweave/internal/app"
	"privacyweave/internal/domain"
	"privacyweave/internal/notify"
	"privacyweave/internal/ratelimit"
	"privacyweave/internal/storage"
	"privacyweave/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Email    *notify.EmailSender
	WhatsApp *notify.WhatsAppSender
	Uploads  *storage.FileStore

	RedisAddr     string
	RedisPassword string
	// Per-minute limits for the public submission endpoints and login.
	SubmitRateLimitPerMinute int
	LoginRateLimitPerMinute  int

	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Server exposes the HTTP API.
type Server struct {
	app      *app.App
	email    *notify.EmailSender
	whatsapp *notify.WhatsAppSender
	uploads  *storage.FileStore

	mux               *http.ServeMux
	maxUploadBytes    int64
	allowedExtensions map[string]struct{}
	submitLimiter     *ratelimit.FixedWindowLimiter
	loginLimiter      *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. Rate limiting engages
// only when a Redis address is configured.
func New(cfg Config) (*Server, error) {
	s := &Server{
		app:               cfg.App,
		email:             cfg.Email,
		whatsapp:          cfg.WhatsApp,
		uploads:           cfg.Uploads,
		mux:               http.NewServeMux(),
		maxUploadBytes:    normalizeMaxBytes(cfg.MaxUploadBytes),
		allowedExtensions: normalizeExtensions(cfg.AllowedExtensions),
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		submitLimit := cfg.SubmitRateLimitPerMinute
		if submitLimit <= 0 {
			submitLimit = 20
		}
		loginLimit := cfg.LoginRateLimitPerMinute
		if loginLimit <= 0 {
			loginLimit = 10
		}
		newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
			prefix := "pweave:ratelimit:" + name
			limiter, err := ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, time.Minute)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		var err error
		if s.submitLimiter, err = newLimiter("submit", submitLimit); err != nil {
			return nil, err
		}
		if s.loginLimiter, err = newLimiter("login", loginLimit); err != nil {
			return nil, err
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public lead capture
	s.mux.HandleFunc("/api/inquiries", s.handleCreateInquiry)
	s.mux.HandleFunc("/api/job-applications", s.handleCreateJobApplication)
	s.mux.HandleFunc("/api/job-listings", s.handleListJobListings)
	s.mux.HandleFunc("/api/job-listings/", s.handleJobListingByID)

	// chatbot
	s.mux.HandleFunc("/api/chat/conversations", s.handleCreateConversation)
	s.mux.HandleFunc("/api/chat/conversations/", s.handleConversationMessages)

	// auth
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.authenticated(s.handleMe))

	// admin
	s.mux.Handle("/api/admin/inquiries", s.adminOnly(s.handleAdminInquiries))
	s.mux.Handle("/api/admin/job-applications", s.adminOnly(s.handleAdminJobApplications))
	s.mux.Handle("/api/admin/job-applications/", s.adminOnly(s.handleAdminResumeDownload))
	s.mux.Handle("/api/admin/chat/conversations", s.adminOnly(s.handleAdminConversations))
	s.mux.Handle("/api/admin/email-config", s.adminOnly(s.handleEmailConfig))
	s.mux.Handle("/api/admin/whatsapp-config", s.adminOnly(s.handleWhatsAppConfig))
	s.mux.Handle("/api/admin/test-email", s.adminOnly(s.handleTestEmail))
	s.mux.Handle("/api/admin/test-whatsapp", s.adminOnly(s.handleTestWhatsApp))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

// adminOnly rejects unauthenticated and non-admin callers alike with 403,
// so the admin surface does not reveal whether a session exists.
func (s *Server) adminOnly(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "admin.authorize", "fail", "reason", "unauthenticated")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if user.Role != domain.RoleAdmin {
			s.audit(r, "admin.authorize", "fail", "user_id", user.ID, "reason", "not_admin")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "admin.authorize", "success", "user_id", user.ID)
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	user, ok, err := s.app.UserByToken(token)
	if err != nil {
		slog.Error("resolve session token", "err", err)
		return domain.User{}, false
	}
	return user, ok
}

// submission handlers

func (s *Server) handleCreateInquiry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.submitLimiter, "too many submissions") {
		s.audit(r, "inquiry.create", "rate_limited")
		return
	}
	var req app.InquiryInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	inquiry, outcome, err := s.app.SubmitInquiry(req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeCreated(w, inquiry, outcome)
}

func (s *Server) handleCreateJobApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.submitLimiter, "too many submissions") {
		s.audit(r, "job_application.create", "rate_limited")
		return
	}
	var req app.JobApplicationInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	application, outcome, err := s.app.SubmitJobApplication(req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeCreated(w, application, outcome)
}

// writeCreated shapes the submission response: the persisted entity plus
// the notification outcome flags under _meta.
func writeCreated(w http.ResponseWriter, entity any, outcome app.NotifyOutcome) {
	raw, err := json.Marshal(entity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	body["_meta"] = outcome
	writeJSON(w, http.StatusCreated, body)
}

// listing handlers

func (s *Server) handleListJobListings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	listings, err := s.app.Store().GetActiveJobListings()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (s *Server) handleJobListingByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, ok := pathID(w, r, "/api/job-listings/")
	if !ok {
		return
	}
	listing, found, err := s.app.Store().GetJobListing(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "job listing not found")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// chat handlers

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req app.ConversationInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	conversation, err := s.app.EnsureConversation(req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

// /api/chat/conversations/{id}/messages
func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/chat/conversations/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[1] != "messages" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	switch r.Method {
	case http.MethodGet:
		messages, err := s.app.ListMessages(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	case http.MethodPost:
		if !s.allowRate(w, r, s.submitLimiter, "too many messages") {
			s.audit(r, "chat.message.create", "rate_limited")
			return
		}
		s.handlePostChatMessage(w, r, id)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePostChatMessage(w http.ResponseWriter, r *http.Request, conversationID int) {
	// One megabyte of slack over the attachment cap covers the text fields
	// and multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	input := app.ChatMessageInput{
		Sender:               r.FormValue("sender"),
		Content:              r.FormValue("content"),
		IsApplicationRequest: r.FormValue("isApplicationRequest") == "true",
	}
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Metadata); err != nil {
			writeError(w, http.StatusBadRequest, "metadata must be a JSON object")
			return
		}
	}

	file, header, err := r.FormFile("attachment")
	switch {
	case err == nil:
		defer file.Close()
		if !s.isExtensionAllowed(header.Filename) {
			writeError(w, http.StatusBadRequest, "unsupported file type")
			return
		}
		if header.Size > s.maxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		path, err := s.uploads.Save("attachment", header.Filename, file)
		if err != nil {
			slog.Error("save chat attachment", "err", err)
			writeError(w, http.StatusInternalServerError, "could not store attachment")
			return
		}
		input.AttachmentPath = path
		input.AttachmentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, http.StatusBadRequest, "invalid attachment")
		return
	}

	result, err := s.app.PostChatMessage(conversationID, input)
	if err != nil {
		// The upload is orphaned once the pipeline fails; remove it so the
		// disk does not accumulate files with no message row.
		if input.AttachmentPath != "" {
			if rmErr := s.uploads.Remove(input.AttachmentPath); rmErr != nil {
				slog.Error("remove orphaned attachment", "path", input.AttachmentPath, "err", rmErr)
			}
		}
		writeAppError(w, err)
		return
	}
	if result.BotResponse == nil {
		writeJSON(w, http.StatusCreated, result.UserMessage)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"userMessage": result.UserMessage,
		"botResponse": result.BotResponse,
	})
}

// auth handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		s.audit(r, "login", "fail", "username", req.Username)
		writeAppError(w, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeAppError(w, err)
		return
	}
	s.audit(r, "logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// admin handlers

func (s *Server) handleAdminInquiries(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	inquiries, err := s.app.Store().GetInquiries()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": inquiries,
		"count": len(inquiries),
	})
}

func (s *Server) handleAdminJobApplications(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	applications, err := s.app.Store().GetJobApplications()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": applications,
		"count": len(applications),
	})
}

// /api/admin/job-applications/{id}/resume
func (s *Server) handleAdminResumeDownload(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/job-applications/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[1] != "resume" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid application id")
		return
	}
	application, found, err := s.app.Store().GetJobApplication(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "job application not found")
		return
	}
	switch application.Resume.Kind {
	case domain.ResumeExternalLink:
		http.Redirect(w, r, application.Resume.Ref, http.StatusFound)
	case domain.ResumeLocalFile:
		if !s.uploads.Contains(application.Resume.Ref) {
			writeError(w, http.StatusNotFound, "resume file not found")
			return
		}
		name := strings.ReplaceAll(application.FullName, " ", "_") + "_Resume" + filepath.Ext(application.Resume.Ref)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		http.ServeFile(w, r, application.Resume.Ref)
	default:
		writeError(w, http.StatusNotFound, "no resume on file")
	}
}

func (s *Server) handleAdminConversations(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	conversations, err := s.app.Store().GetChatConversations()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": conversations,
		"count": len(conversations),
	})
}

func (s *Server) handleEmailConfig(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.email.Config())
}

func (s *Server) handleWhatsAppConfig(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.whatsapp.Config())
}

func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req testEmailRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.EmailType {
	case "inquiry", "job-application":
	default:
		writeError(w, http.StatusBadRequest, `emailType must be "inquiry" or "job-application"`)
		return
	}
	if !s.email.SendTest(req.EmailType) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "test email could not be sent; check the email configuration",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "test email sent to " + strings.Join(s.email.Recipients(), ", "),
	})
}

func (s *Server) handleTestWhatsApp(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.whatsapp.SendTest() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "test WhatsApp message could not be sent; check the Twilio configuration",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "test WhatsApp message sent",
	})
}

// request/response shapes

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type testEmailRequest struct {
	EmailType string `json:"emailType"`
}

// helpers

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		http.NotFound(w, r)
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps application errors to client-facing statuses.
func writeAppError(w http.ResponseWriter, err error) {
	var ve *app.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid input",
			"fields": ve.Fields,
		})
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 5 * 1024 * 1024
	}
	return value
}

func normalizeExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = []string{".pdf", ".doc", ".docx"}
	}
	out := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out[ext] = struct{}{}
	}
	return out
}

func (s *Server) isExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	_, ok := s.allowedExtensions[ext]
	return ok
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
