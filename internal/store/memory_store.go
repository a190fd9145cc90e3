package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"privacyweave/internal/domain"
)

// MemoryStore keeps all entities in-process. It backs local development
// without a database and the test suite.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[int]domain.User
	inquiries     map[int]domain.Inquiry
	applications  map[int]domain.JobApplication
	listings      map[int]domain.JobListing
	conversations map[int]domain.ChatConversation
	messages      map[int]domain.ChatMessage

	nextUser         int
	nextInquiry      int
	nextApplication  int
	nextListing      int
	nextConversation int
	nextMessage      int
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            make(map[int]domain.User),
		inquiries:        make(map[int]domain.Inquiry),
		applications:     make(map[int]domain.JobApplication),
		listings:         make(map[int]domain.JobListing),
		conversations:    make(map[int]domain.ChatConversation),
		messages:         make(map[int]domain.ChatMessage),
		nextUser:         1,
		nextInquiry:      1,
		nextApplication:  1,
		nextListing:      1,
		nextConversation: 1,
		nextMessage:      1,
	}
}

// CreateUser stores a new user.
func (m *MemoryStore) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return domain.User{}, fmt.Errorf("username %q already exists", u.Username)
		}
	}
	u.ID = m.nextUser
	m.nextUser++
	u.CreatedAt = time.Now().UTC()
	m.users[u.ID] = u
	return u, nil
}

// GetUser returns a user by ID.
func (m *MemoryStore) GetUser(id int) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

// CreateInquiry stores a contact-form inquiry.
func (m *MemoryStore) CreateInquiry(i domain.Inquiry) (domain.Inquiry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.ID = m.nextInquiry
	m.nextInquiry++
	i.CreatedAt = time.Now().UTC()
	m.inquiries[i.ID] = i
	return i, nil
}

// GetInquiries returns all inquiries, newest first.
func (m *MemoryStore) GetInquiries() ([]domain.Inquiry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Inquiry, 0, len(m.inquiries))
	for _, i := range m.inquiries {
		res = append(res, i)
	}
	sort.Slice(res, func(a, b int) bool { return res[a].ID > res[b].ID })
	return res, nil
}

// GetInquiry retrieves one inquiry.
func (m *MemoryStore) GetInquiry(id int) (domain.Inquiry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.inquiries[id]
	return i, ok, nil
}

// CreateJobApplication stores a job application.
func (m *MemoryStore) CreateJobApplication(a domain.JobApplication) (domain.JobApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ApplicationType == "" {
		a.ApplicationType = domain.ApplicationJob
	}
	a.ID = m.nextApplication
	m.nextApplication++
	a.CreatedAt = time.Now().UTC()
	m.applications[a.ID] = a
	return a, nil
}

// UpdateJobApplication applies a partial update by column name.
func (m *MemoryStore) UpdateJobApplication(id int, updates map[string]any) (domain.JobApplication, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return domain.JobApplication{}, false, nil
	}
	for key, value := range updates {
		str, _ := value.(string)
		switch key {
		case "full_name":
			a.FullName = str
		case "email":
			a.Email = str
		case "phone":
			a.Phone = str
		case "position":
			a.Position = str
		case "experience":
			a.Experience = str
		case "message":
			a.Message = str
		case "resume_kind":
			a.Resume.Kind = domain.ResumeKind(str)
		case "resume_ref":
			a.Resume.Ref = str
		case "application_type":
			a.ApplicationType = domain.ApplicationType(str)
		case "education":
			a.Education = str
		case "university":
			a.University = str
		case "graduation_year":
			a.GraduationYear = str
		case "availability_date":
			a.AvailabilityDate = str
		}
	}
	m.applications[id] = a
	return a, true, nil
}

// GetJobApplications returns all applications, newest first.
func (m *MemoryStore) GetJobApplications() ([]domain.JobApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.JobApplication, 0, len(m.applications))
	for _, a := range m.applications {
		res = append(res, a)
	}
	sort.Slice(res, func(a, b int) bool { return res[a].ID > res[b].ID })
	return res, nil
}

// GetJobApplication retrieves one application.
func (m *MemoryStore) GetJobApplication(id int) (domain.JobApplication, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.applications[id]
	return a, ok, nil
}

// CreateJobListing stores a listing.
func (m *MemoryStore) CreateJobListing(l domain.JobListing) (domain.JobListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.nextListing
	m.nextListing++
	l.CreatedAt = time.Now().UTC()
	m.listings[l.ID] = l
	return l, nil
}

// GetJobListings returns all listings, newest first.
func (m *MemoryStore) GetJobListings() ([]domain.JobListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.JobListing, 0, len(m.listings))
	for _, l := range m.listings {
		res = append(res, l)
	}
	sort.Slice(res, func(a, b int) bool { return res[a].ID > res[b].ID })
	return res, nil
}

// GetActiveJobListings returns active listings only, newest first.
func (m *MemoryStore) GetActiveJobListings() ([]domain.JobListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.JobListing, 0, len(m.listings))
	for _, l := range m.listings {
		if l.IsActive {
			res = append(res, l)
		}
	}
	sort.Slice(res, func(a, b int) bool { return res[a].ID > res[b].ID })
	return res, nil
}

// GetJobListing retrieves one listing.
func (m *MemoryStore) GetJobListing(id int) (domain.JobListing, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	return l, ok, nil
}

// CreateChatConversation stores a conversation.
func (m *MemoryStore) CreateChatConversation(c domain.ChatConversation) (domain.ChatConversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.conversations {
		if existing.SessionID == c.SessionID {
			return domain.ChatConversation{}, fmt.Errorf("session %q already has a conversation", c.SessionID)
		}
	}
	c.ID = m.nextConversation
	m.nextConversation++
	now := time.Now().UTC()
	c.StartedAt = now
	c.LastMessageAt = now
	if c.Status == "" {
		c.Status = "active"
	}
	m.conversations[c.ID] = c
	return c, nil
}

// GetChatConversation retrieves a conversation by ID.
func (m *MemoryStore) GetChatConversation(id int) (domain.ChatConversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	return c, ok, nil
}

// GetChatConversationBySessionID resolves the conversation for a session.
func (m *MemoryStore) GetChatConversationBySessionID(sessionID string) (domain.ChatConversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.conversations {
		if c.SessionID == sessionID {
			return c, true, nil
		}
	}
	return domain.ChatConversation{}, false, nil
}

// GetChatConversations returns all conversations, newest activity first.
func (m *MemoryStore) GetChatConversations() ([]domain.ChatConversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ChatConversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		res = append(res, c)
	}
	sort.Slice(res, func(a, b int) bool {
		return res[a].LastMessageAt.After(res[b].LastMessageAt)
	})
	return res, nil
}

// TouchChatConversation bumps the last-message timestamp to now.
func (m *MemoryStore) TouchChatConversation(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil
	}
	c.LastMessageAt = time.Now().UTC()
	m.conversations[id] = c
	return nil
}

// CreateChatMessage records a message.
func (m *MemoryStore) CreateChatMessage(msg domain.ChatMessage) (domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.nextMessage
	m.nextMessage++
	msg.Timestamp = time.Now().UTC()
	m.messages[msg.ID] = msg
	return msg, nil
}

// GetChatMessagesByConversation lists messages in chronological order.
func (m *MemoryStore) GetChatMessagesByConversation(conversationID int) ([]domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ChatMessage, 0)
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			res = append(res, msg)
		}
	}
	sort.Slice(res, func(a, b int) bool {
		if res[a].Timestamp.Equal(res[b].Timestamp) {
			return res[a].ID < res[b].ID
		}
		return res[a].Timestamp.Before(res[b].Timestamp)
	})
	return res, nil
}

// UpdateChatMessageMetadata replaces a message's metadata document.
func (m *MemoryStore) UpdateChatMessageMetadata(id int, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil
	}
	msg.Metadata = metadata
	m.messages[id] = msg
	return nil
}
