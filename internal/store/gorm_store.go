package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"privacyweave/internal/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&InquiryModel{},
		&JobApplicationModel{},
		&JobListingModel{},
		&ChatConversationModel{},
		&ChatMessageModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateUser stores a new user.
func (s *GormStore) CreateUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	model.ID = 0
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// GetUser returns a user by ID.
func (s *GormStore) GetUser(id int) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// CreateInquiry stores a contact-form inquiry.
func (s *GormStore) CreateInquiry(i domain.Inquiry) (domain.Inquiry, error) {
	model := inquiryToModel(i)
	model.ID = 0
	model.CreatedAt = time.Now().UTC()
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Inquiry{}, err
	}
	return inquiryFromModel(model), nil
}

// GetInquiries returns all inquiries, newest first.
func (s *GormStore) GetInquiries() ([]domain.Inquiry, error) {
	var models []InquiryModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Inquiry, 0, len(models))
	for _, m := range models {
		res = append(res, inquiryFromModel(m))
	}
	return res, nil
}

// GetInquiry retrieves one inquiry.
func (s *GormStore) GetInquiry(id int) (domain.Inquiry, bool, error) {
	var model InquiryModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Inquiry{}, false, nil
		}
		return domain.Inquiry{}, false, err
	}
	return inquiryFromModel(model), true, nil
}

// CreateJobApplication stores a job application.
func (s *GormStore) CreateJobApplication(a domain.JobApplication) (domain.JobApplication, error) {
	if a.ApplicationType == "" {
		a.ApplicationType = domain.ApplicationJob
	}
	model := applicationToModel(a)
	model.ID = 0
	model.CreatedAt = time.Now().UTC()
	if err := s.db.Create(&model).Error; err != nil {
		return domain.JobApplication{}, err
	}
	return applicationFromModel(model), nil
}

// UpdateJobApplication applies a partial update and returns the new row.
func (s *GormStore) UpdateJobApplication(id int, updates map[string]any) (domain.JobApplication, bool, error) {
	res := s.db.Model(&JobApplicationModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return domain.JobApplication{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.JobApplication{}, false, nil
	}
	return s.GetJobApplication(id)
}

// GetJobApplications returns all applications, newest first.
func (s *GormStore) GetJobApplications() ([]domain.JobApplication, error) {
	var models []JobApplicationModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.JobApplication, 0, len(models))
	for _, m := range models {
		res = append(res, applicationFromModel(m))
	}
	return res, nil
}

// GetJobApplication retrieves one application.
func (s *GormStore) GetJobApplication(id int) (domain.JobApplication, bool, error) {
	var model JobApplicationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.JobApplication{}, false, nil
		}
		return domain.JobApplication{}, false, err
	}
	return applicationFromModel(model), true, nil
}

// CreateJobListing stores a listing.
func (s *GormStore) CreateJobListing(l domain.JobListing) (domain.JobListing, error) {
	model := listingToModel(l)
	model.ID = 0
	model.CreatedAt = time.Now().UTC()
	if err := s.db.Create(&model).Error; err != nil {
		return domain.JobListing{}, err
	}
	return listingFromModel(model), nil
}

// GetJobListings returns all listings, newest first.
func (s *GormStore) GetJobListings() ([]domain.JobListing, error) {
	return s.listListings("created_at DESC")
}

// GetActiveJobListings returns active listings only, newest first.
func (s *GormStore) GetActiveJobListings() ([]domain.JobListing, error) {
	return s.listListings("created_at DESC", "is_active = ?", true)
}

func (s *GormStore) listListings(order string, conds ...any) ([]domain.JobListing, error) {
	var models []JobListingModel
	tx := s.db.Order(order)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.JobListing, 0, len(models))
	for _, m := range models {
		res = append(res, listingFromModel(m))
	}
	return res, nil
}

// GetJobListing retrieves one listing.
func (s *GormStore) GetJobListing(id int) (domain.JobListing, bool, error) {
	var model JobListingModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.JobListing{}, false, nil
		}
		return domain.JobListing{}, false, err
	}
	return listingFromModel(model), true, nil
}

// CreateChatConversation stores a conversation.
func (s *GormStore) CreateChatConversation(c domain.ChatConversation) (domain.ChatConversation, error) {
	model := conversationToModel(c)
	model.ID = 0
	now := time.Now().UTC()
	model.StartedAt = now
	model.LastMessageAt = now
	if model.Status == "" {
		model.Status = "active"
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.ChatConversation{}, err
	}
	return conversationFromModel(model), nil
}

// GetChatConversation retrieves a conversation by ID.
func (s *GormStore) GetChatConversation(id int) (domain.ChatConversation, bool, error) {
	var model ChatConversationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatConversation{}, false, nil
		}
		return domain.ChatConversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// GetChatConversationBySessionID resolves the conversation for a session.
func (s *GormStore) GetChatConversationBySessionID(sessionID string) (domain.ChatConversation, bool, error) {
	var model ChatConversationModel
	if err := s.db.Where("session_id = ?", sessionID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatConversation{}, false, nil
		}
		return domain.ChatConversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// GetChatConversations returns all conversations, newest activity first.
func (s *GormStore) GetChatConversations() ([]domain.ChatConversation, error) {
	var models []ChatConversationModel
	if err := s.db.Order("last_message_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ChatConversation, 0, len(models))
	for _, m := range models {
		res = append(res, conversationFromModel(m))
	}
	return res, nil
}

// TouchChatConversation bumps the last-message timestamp to now.
func (s *GormStore) TouchChatConversation(id int) error {
	return s.db.Model(&ChatConversationModel{}).
		Where("id = ?", id).
		Update("last_message_at", time.Now().UTC()).Error
}

// CreateChatMessage records a message.
func (s *GormStore) CreateChatMessage(msg domain.ChatMessage) (domain.ChatMessage, error) {
	model := messageToModel(msg)
	model.ID = 0
	model.Timestamp = time.Now().UTC()
	if err := s.db.Create(&model).Error; err != nil {
		return domain.ChatMessage{}, err
	}
	return messageFromModel(model), nil
}

// GetChatMessagesByConversation lists messages in chronological order.
func (s *GormStore) GetChatMessagesByConversation(conversationID int) ([]domain.ChatMessage, error) {
	var models []ChatMessageModel
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ChatMessage, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res, nil
}

// UpdateChatMessageMetadata replaces a message's metadata document.
func (s *GormStore) UpdateChatMessageMetadata(id int, metadata map[string]any) error {
	return s.db.Model(&ChatMessageModel{}).Where("id = ?", id).
		Update("metadata", datatypes.JSONMap(metadata)).Error
}
