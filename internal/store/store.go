package store

import "privacyweave/internal/domain"

// Store defines persistence operations for users, inquiries, applications,
// listings, and chat data. Create operations assign the id and creation
// timestamp and return the stored row. List operations return newest first
// except chat messages, which read chronologically.
type Store interface {
	// users
	CreateUser(domain.User) (domain.User, error)
	GetUser(id int) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)

	// inquiries
	CreateInquiry(domain.Inquiry) (domain.Inquiry, error)
	GetInquiries() ([]domain.Inquiry, error)
	GetInquiry(id int) (domain.Inquiry, bool, error)

	// job applications
	CreateJobApplication(domain.JobApplication) (domain.JobApplication, error)
	UpdateJobApplication(id int, updates map[string]any) (domain.JobApplication, bool, error)
	GetJobApplications() ([]domain.JobApplication, error)
	GetJobApplication(id int) (domain.JobApplication, bool, error)

	// job listings
	CreateJobListing(domain.JobListing) (domain.JobListing, error)
	GetJobListings() ([]domain.JobListing, error)
	GetActiveJobListings() ([]domain.JobListing, error)
	GetJobListing(id int) (domain.JobListing, bool, error)

	// chat conversations
	CreateChatConversation(domain.ChatConversation) (domain.ChatConversation, error)
	GetChatConversation(id int) (domain.ChatConversation, bool, error)
	GetChatConversationBySessionID(sessionID string) (domain.ChatConversation, bool, error)
	GetChatConversations() ([]domain.ChatConversation, error)
	TouchChatConversation(id int) error

	// chat messages
	CreateChatMessage(domain.ChatMessage) (domain.ChatMessage, error)
	GetChatMessagesByConversation(conversationID int) ([]domain.ChatMessage, error)
	UpdateChatMessageMetadata(id int, metadata map[string]any) error
}

// SessionStore persists opaque admin session tokens.
type SessionStore interface {
	NewSession(userID int) (string, error)
	GetUserIDByToken(token string) (int, bool, error)
	DeleteSession(token string) error
}
