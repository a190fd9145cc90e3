package store

import (
	"time"

	"gorm.io/datatypes"

	"privacyweave/internal/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           int       `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;default:user"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type InquiryModel struct {
	ID        int       `gorm:"primaryKey"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Company   string    `gorm:"not null"`
	Industry  string    `gorm:"not null"`
	Message   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (InquiryModel) TableName() string { return "inquiries" }

type JobApplicationModel struct {
	ID               int       `gorm:"primaryKey"`
	FullName         string    `gorm:"not null"`
	Email            string    `gorm:"not null"`
	Phone            string    `gorm:"not null"`
	Position         string    `gorm:"not null"`
	Experience       string    `gorm:"not null"`
	Message          string
	ResumeKind       string
	ResumeRef        string
	ApplicationType  string    `gorm:"not null;default:job"`
	Education        string
	University       string
	GraduationYear   string
	AvailabilityDate string
	CreatedAt        time.Time `gorm:"not null;index"`
}

func (JobApplicationModel) TableName() string { return "job_applications" }

type JobListingModel struct {
	ID              int       `gorm:"primaryKey"`
	Title           string    `gorm:"not null"`
	Description     string    `gorm:"not null"`
	Requirements    string    `gorm:"not null"`
	Type            string    `gorm:"not null"`
	Location        string    `gorm:"not null"`
	Experience      string    `gorm:"not null"`
	IsActive        bool      `gorm:"not null;default:true"`
	ListingCategory string
	CreatedAt       time.Time `gorm:"not null;index"`
}

func (JobListingModel) TableName() string { return "job_listings" }

type ChatConversationModel struct {
	ID            int       `gorm:"primaryKey"`
	SessionID     string    `gorm:"uniqueIndex;not null"`
	UserEmail     string
	UserName      string
	StartedAt     time.Time `gorm:"not null"`
	LastMessageAt time.Time `gorm:"not null"`
	Category      string
	Status        string `gorm:"not null;default:active"`
}

func (ChatConversationModel) TableName() string { return "chat_conversations" }

type ChatMessageModel struct {
	ID             int `gorm:"primaryKey"`
	ConversationID int `gorm:"not null;index"`
	// Conversation declares the FK so messages cascade-delete with their
	// conversation. Kept as a pointer so creates never touch the association.
	Conversation         *ChatConversationModel `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	Sender               string                 `gorm:"not null"`
	Content              string                 `gorm:"not null"`
	Timestamp            time.Time              `gorm:"not null;index"`
	AttachmentPath       string
	AttachmentType       string
	IsApplicationRequest bool `gorm:"not null;default:false"`
	Metadata             datatypes.JSONMap
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
	}
}

func inquiryToModel(i domain.Inquiry) InquiryModel {
	return InquiryModel{
		ID:        i.ID,
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Email:     i.Email,
		Company:   i.Company,
		Industry:  i.Industry,
		Message:   i.Message,
		CreatedAt: i.CreatedAt,
	}
}

func inquiryFromModel(m InquiryModel) domain.Inquiry {
	return domain.Inquiry{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Company:   m.Company,
		Industry:  m.Industry,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}

func applicationToModel(a domain.JobApplication) JobApplicationModel {
	return JobApplicationModel{
		ID:               a.ID,
		FullName:         a.FullName,
		Email:            a.Email,
		Phone:            a.Phone,
		Position:         a.Position,
		Experience:       a.Experience,
		Message:          a.Message,
		ResumeKind:       string(a.Resume.Kind),
		ResumeRef:        a.Resume.Ref,
		ApplicationType:  string(a.ApplicationType),
		Education:        a.Education,
		University:       a.University,
		GraduationYear:   a.GraduationYear,
		AvailabilityDate: a.AvailabilityDate,
		CreatedAt:        a.CreatedAt,
	}
}

func applicationFromModel(m JobApplicationModel) domain.JobApplication {
	app := domain.JobApplication{
		ID:               m.ID,
		FullName:         m.FullName,
		Email:            m.Email,
		Phone:            m.Phone,
		Position:         m.Position,
		Experience:       m.Experience,
		Message:          m.Message,
		ApplicationType:  domain.ApplicationType(m.ApplicationType),
		Education:        m.Education,
		University:       m.University,
		GraduationYear:   m.GraduationYear,
		AvailabilityDate: m.AvailabilityDate,
		CreatedAt:        m.CreatedAt,
	}
	if m.ResumeRef != "" {
		app.Resume = domain.ResumeReference{Kind: domain.ResumeKind(m.ResumeKind), Ref: m.ResumeRef}
	}
	return app
}

func listingToModel(l domain.JobListing) JobListingModel {
	return JobListingModel{
		ID:              l.ID,
		Title:           l.Title,
		Description:     l.Description,
		Requirements:    l.Requirements,
		Type:            l.Type,
		Location:        l.Location,
		Experience:      l.Experience,
		IsActive:        l.IsActive,
		ListingCategory: l.ListingCategory,
		CreatedAt:       l.CreatedAt,
	}
}

func listingFromModel(m JobListingModel) domain.JobListing {
	return domain.JobListing{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		Requirements:    m.Requirements,
		Type:            m.Type,
		Location:        m.Location,
		Experience:      m.Experience,
		IsActive:        m.IsActive,
		ListingCategory: m.ListingCategory,
		CreatedAt:       m.CreatedAt,
	}
}

func conversationToModel(c domain.ChatConversation) ChatConversationModel {
	return ChatConversationModel{
		ID:            c.ID,
		SessionID:     c.SessionID,
		UserEmail:     c.UserEmail,
		UserName:      c.UserName,
		StartedAt:     c.StartedAt,
		LastMessageAt: c.LastMessageAt,
		Category:      c.Category,
		Status:        c.Status,
	}
}

func conversationFromModel(m ChatConversationModel) domain.ChatConversation {
	return domain.ChatConversation{
		ID:            m.ID,
		SessionID:     m.SessionID,
		UserEmail:     m.UserEmail,
		UserName:      m.UserName,
		StartedAt:     m.StartedAt,
		LastMessageAt: m.LastMessageAt,
		Category:      m.Category,
		Status:        m.Status,
	}
}

func messageToModel(msg domain.ChatMessage) ChatMessageModel {
	return ChatMessageModel{
		ID:                   msg.ID,
		ConversationID:       msg.ConversationID,
		Sender:               string(msg.Sender),
		Content:              msg.Content,
		Timestamp:            msg.Timestamp,
		AttachmentPath:       msg.AttachmentPath,
		AttachmentType:       msg.AttachmentType,
		IsApplicationRequest: msg.IsApplicationRequest,
		Metadata:             datatypes.JSONMap(msg.Metadata),
	}
}

func messageFromModel(m ChatMessageModel) domain.ChatMessage {
	return domain.ChatMessage{
		ID:                   m.ID,
		ConversationID:       m.ConversationID,
		Sender:               domain.MessageSender(m.Sender),
		Content:              m.Content,
		Timestamp:            m.Timestamp,
		AttachmentPath:       m.AttachmentPath,
		AttachmentType:       m.AttachmentType,
		IsApplicationRequest: m.IsApplicationRequest,
		Metadata:             map[string]any(m.Metadata),
	}
}
