package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"privacyweave/internal/auth"
	"privacyweave/internal/domain"
	"privacyweave/internal/store"
)

// EmailNotifier is the outbound email surface the flows depend on.
// Sends report success as a bool and never fail the request.
type EmailNotifier interface {
	SendInquiry(domain.Inquiry) bool
	SendJobApplication(domain.JobApplication) bool
}

// WhatsAppNotifier is the outbound WhatsApp surface the flows depend on.
type WhatsAppNotifier interface {
	SendInquiry(domain.Inquiry) bool
	SendJobApplication(domain.JobApplication) bool
}

// Replier computes the bot response for a visitor message.
type Replier interface {
	Reply(message string, conversation domain.ChatConversation) (string, error)
}

// App wires the persistence, notification, and chatbot pieces into the
// lead-capture flows. Persistence is authoritative; notifications are
// advisory and their outcomes are reported back to the caller.
type App struct {
	store    store.Store
	sessions store.SessionStore
	email    EmailNotifier
	whatsapp WhatsAppNotifier
	replier  Replier
}

func New(st store.Store, sessions store.SessionStore, email EmailNotifier, whatsapp WhatsAppNotifier, replier Replier) *App {
	return &App{store: st, sessions: sessions, email: email, whatsapp: whatsapp, replier: replier}
}

// Store exposes the persistence layer for read-only handlers.
func (a *App) Store() store.Store { return a.store }

// NotifyOutcome reports the two best-effort notification results that
// accompany every submission response.
type NotifyOutcome struct {
	EmailSent    bool `json:"emailNotificationSent"`
	WhatsAppSent bool `json:"whatsappNotificationSent"`
}

// InquiryInput is the contact-form request body.
type InquiryInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Industry  string `json:"industry"`
	Message   string `json:"message"`
}

func (in InquiryInput) validate() error {
	f := fieldErrors{}
	f.requireString("firstName", in.FirstName)
	f.requireString("lastName", in.LastName)
	f.requireString("email", in.Email)
	f.requireString("company", in.Company)
	f.requireString("industry", in.Industry)
	f.requireString("message", in.Message)
	if _, ok := f["email"]; !ok && !strings.Contains(in.Email, "@") {
		f["email"] = "must be a valid email address"
	}
	return f.err()
}

// SubmitInquiry persists a demo request and dispatches both notifications.
func (a *App) SubmitInquiry(in InquiryInput) (domain.Inquiry, NotifyOutcome, error) {
	if err := in.validate(); err != nil {
		return domain.Inquiry{}, NotifyOutcome{}, err
	}
	inquiry, err := a.store.CreateInquiry(domain.Inquiry{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Company:   strings.TrimSpace(in.Company),
		Industry:  strings.TrimSpace(in.Industry),
		Message:   in.Message,
	})
	if err != nil {
		return domain.Inquiry{}, NotifyOutcome{}, fmt.Errorf("create inquiry: %w", err)
	}
	outcome := NotifyOutcome{
		EmailSent:    a.email.SendInquiry(inquiry),
		WhatsAppSent: a.whatsapp.SendInquiry(inquiry),
	}
	return inquiry, outcome, nil
}

// JobApplicationInput is the careers-form request body. The resume arrives
// as an externally hosted URL on this path; chat uploads take the local
// file path through the message pipeline instead.
type JobApplicationInput struct {
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Position         string `json:"position"`
	Experience       string `json:"experience"`
	Message          string `json:"message"`
	ResumePath       string `json:"resumePath"`
	ApplicationType  string `json:"applicationType"`
	Education        string `json:"education"`
	University       string `json:"university"`
	GraduationYear   string `json:"graduationYear"`
	AvailabilityDate string `json:"availabilityDate"`
}

func (in JobApplicationInput) validate() error {
	f := fieldErrors{}
	f.requireString("fullName", in.FullName)
	f.requireString("email", in.Email)
	f.requireString("phone", in.Phone)
	f.requireString("position", in.Position)
	f.requireString("experience", in.Experience)
	if _, ok := f["email"]; !ok && !strings.Contains(in.Email, "@") {
		f["email"] = "must be a valid email address"
	}
	switch in.ApplicationType {
	case "", string(domain.ApplicationJob), string(domain.ApplicationInternship):
	default:
		f["applicationType"] = `must be "job" or "internship"`
	}
	return f.err()
}

// SubmitJobApplication persists a careers submission and dispatches both
// notifications. An omitted application type defaults to "job".
func (a *App) SubmitJobApplication(in JobApplicationInput) (domain.JobApplication, NotifyOutcome, error) {
	if err := in.validate(); err != nil {
		return domain.JobApplication{}, NotifyOutcome{}, err
	}
	appType := domain.ApplicationType(in.ApplicationType)
	if appType == "" {
		appType = domain.ApplicationJob
	}
	var resume domain.ResumeReference
	if strings.TrimSpace(in.ResumePath) != "" {
		resume = domain.ExternalLink(strings.TrimSpace(in.ResumePath))
	}
	application, err := a.store.CreateJobApplication(domain.JobApplication{
		FullName:         strings.TrimSpace(in.FullName),
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		Position:         strings.TrimSpace(in.Position),
		Experience:       strings.TrimSpace(in.Experience),
		Message:          in.Message,
		Resume:           resume,
		ApplicationType:  appType,
		Education:        in.Education,
		University:       in.University,
		GraduationYear:   in.GraduationYear,
		AvailabilityDate: in.AvailabilityDate,
	})
	if err != nil {
		return domain.JobApplication{}, NotifyOutcome{}, fmt.Errorf("create job application: %w", err)
	}
	outcome := NotifyOutcome{
		EmailSent:    a.email.SendJobApplication(application),
		WhatsAppSent: a.whatsapp.SendJobApplication(application),
	}
	return application, outcome, nil
}

// ConversationInput is the body for starting (or resuming) a chat session.
type ConversationInput struct {
	SessionID string `json:"sessionId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
	Category  string `json:"category"`
}

// EnsureConversation returns the conversation for the given session id,
// creating it on first contact. Creation is idempotent by session id; a
// missing id is generated server-side.
func (a *App) EnsureConversation(in ConversationInput) (domain.ChatConversation, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newSessionID()
	} else {
		existing, ok, err := a.store.GetChatConversationBySessionID(sessionID)
		if err != nil {
			return domain.ChatConversation{}, fmt.Errorf("lookup conversation: %w", err)
		}
		if ok {
			return existing, nil
		}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "general"
	}
	conversation, err := a.store.CreateChatConversation(domain.ChatConversation{
		SessionID: sessionID,
		UserEmail: strings.TrimSpace(in.UserEmail),
		UserName:  strings.TrimSpace(in.UserName),
		Category:  category,
		Status:    "active",
	})
	if err != nil {
		return domain.ChatConversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

func newSessionID() string {
	return fmt.Sprintf("chat_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// ListMessages returns a conversation's messages in chronological order.
func (a *App) ListMessages(conversationID int) ([]domain.ChatMessage, error) {
	if _, ok, err := a.store.GetChatConversation(conversationID); err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	} else if !ok {
		return nil, ErrNotFound
	}
	messages, err := a.store.GetChatMessagesByConversation(conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// ChatMessageInput is the parsed multipart body of a chat message post.
// Attachment fields are set by the handler after the upload is written.
type ChatMessageInput struct {
	Sender               string
	Content              string
	IsApplicationRequest bool
	Metadata             map[string]any
	AttachmentPath       string
	AttachmentType       string
}

// ChatMessageResult is the message pipeline's outcome: the stored visitor
// message and, when the sender was a user, the stored bot reply.
type ChatMessageResult struct {
	UserMessage domain.ChatMessage
	BotResponse *domain.ChatMessage
}

// PostChatMessage runs the chat pipeline: persist the inbound message,
// synthesize a job application when the message is flagged as one, bump
// the conversation, and answer user messages with a bot reply. Reply
// failures are swallowed so the visitor's message is never lost.
func (a *App) PostChatMessage(conversationID int, in ChatMessageInput) (ChatMessageResult, error) {
	conversation, ok, err := a.store.GetChatConversation(conversationID)
	if err != nil {
		return ChatMessageResult{}, fmt.Errorf("lookup conversation: %w", err)
	}
	if !ok {
		return ChatMessageResult{}, ErrNotFound
	}

	sender := domain.MessageSender(in.Sender)
	if sender == "" {
		sender = domain.SenderUser
	}
	if sender != domain.SenderUser && sender != domain.SenderBot {
		return ChatMessageResult{}, &ValidationError{Fields: fieldErrors{"sender": `must be "user" or "bot"`}}
	}
	if strings.TrimSpace(in.Content) == "" {
		return ChatMessageResult{}, &ValidationError{Fields: fieldErrors{"content": "is required"}}
	}

	message, err := a.store.CreateChatMessage(domain.ChatMessage{
		ConversationID:       conversationID,
		Sender:               sender,
		Content:              in.Content,
		AttachmentPath:       in.AttachmentPath,
		AttachmentType:       in.AttachmentType,
		IsApplicationRequest: in.IsApplicationRequest,
		Metadata:             in.Metadata,
	})
	if err != nil {
		return ChatMessageResult{}, fmt.Errorf("create message: %w", err)
	}

	if in.IsApplicationRequest && len(in.Metadata) > 0 {
		application, err := a.applicationFromChat(conversation, message)
		if err != nil {
			return ChatMessageResult{}, err
		}
		// Merge the new application id into the stored metadata so the
		// message row and the response agree on the linkage.
		message.Metadata["jobApplicationId"] = application.ID
		if err := a.store.UpdateChatMessageMetadata(message.ID, message.Metadata); err != nil {
			return ChatMessageResult{}, fmt.Errorf("persist message metadata: %w", err)
		}
	}

	if err := a.store.TouchChatConversation(conversationID); err != nil {
		return ChatMessageResult{}, fmt.Errorf("touch conversation: %w", err)
	}

	result := ChatMessageResult{UserMessage: message}
	if sender != domain.SenderUser {
		return result, nil
	}

	reply, err := a.replier.Reply(in.Content, conversation)
	if err != nil {
		slog.Error("generate bot reply", "conversation_id", conversationID, "err", err)
		return result, nil
	}
	botMessage, err := a.store.CreateChatMessage(domain.ChatMessage{
		ConversationID: conversationID,
		Sender:         domain.SenderBot,
		Content:        reply,
	})
	if err != nil {
		slog.Error("persist bot reply", "conversation_id", conversationID, "err", err)
		return result, nil
	}
	if err := a.store.TouchChatConversation(conversationID); err != nil {
		slog.Error("touch conversation after bot reply", "conversation_id", conversationID, "err", err)
	}
	result.BotResponse = &botMessage
	return result, nil
}

// applicationFromChat synthesizes a job application from a flagged chat
// message. Missing metadata fields fall back to conversation details and
// then to placeholder values, so a partially filled chat still lands a row.
func (a *App) applicationFromChat(conversation domain.ChatConversation, message domain.ChatMessage) (domain.JobApplication, error) {
	md := message.Metadata

	fullName := firstNonEmpty(metaString(md, "fullName"), conversation.UserName, "Unknown")
	email := firstNonEmpty(metaString(md, "email"), conversation.UserEmail, "unknown@example.com")
	phone := firstNonEmpty(metaString(md, "phone"), "Not provided")
	position := firstNonEmpty(metaString(md, "position"), "Position via chatbot")
	experience := firstNonEmpty(metaString(md, "experience"), "Not specified")
	coverMessage := firstNonEmpty(metaString(md, "message"), "Applied via chatbot")

	appType := domain.ApplicationJob
	if metaString(md, "applicationType") == string(domain.ApplicationInternship) {
		appType = domain.ApplicationInternship
	}
	var resume domain.ResumeReference
	if message.AttachmentPath != "" {
		resume = domain.LocalFile(message.AttachmentPath)
	}

	application, err := a.store.CreateJobApplication(domain.JobApplication{
		FullName:         fullName,
		Email:            email,
		Phone:            phone,
		Position:         position,
		Experience:       experience,
		Message:          coverMessage,
		Resume:           resume,
		ApplicationType:  appType,
		Education:        metaString(md, "education"),
		University:       metaString(md, "university"),
		GraduationYear:   metaString(md, "graduationYear"),
		AvailabilityDate: metaString(md, "availabilityDate"),
	})
	if err != nil {
		return domain.JobApplication{}, fmt.Errorf("create application from chat: %w", err)
	}
	slog.Info("job application created from chat", "application_id", application.ID, "conversation_id", conversation.ID)

	if !a.email.SendJobApplication(application) {
		slog.Warn("email notification for chat application not sent", "application_id", application.ID)
	}
	return application, nil
}

func metaString(md map[string]any, key string) string {
	if v, ok := md[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Login verifies credentials and opens a session. The returned token is an
// opaque bearer credential stored server-side.
func (a *App) Login(username, password string) (domain.User, string, error) {
	user, ok, err := a.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// Logout discards a session token. Unknown tokens are a no-op.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserByToken resolves a bearer token to its user.
func (a *App) UserByToken(token string) (domain.User, bool, error) {
	userID, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	return a.store.GetUser(userID)
}

// EnsureAdminUser creates the admin account on first boot when configured.
// An existing account with the same username is left untouched.
func (a *App) EnsureAdminUser(username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, ok, err := a.store.GetUserByUsername(username); err != nil {
		return fmt.Errorf("lookup admin user: %w", err)
	} else if ok {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = a.store.CreateUser(domain.User{
		Username:     username,
		Email:        username + "@privacyweave.local",
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	slog.Info("admin user created", "username", username)
	return nil
}
