package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type ApplicationType string

const (
	ApplicationJob        ApplicationType = "job"
	ApplicationInternship ApplicationType = "internship"
)

type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderBot  MessageSender = "bot"
)

// ResumeKind tags how a resume reference must be resolved: a file on the
// local upload disk (chatbot uploads) or an external URL (careers form).
type ResumeKind string

const (
	ResumeLocalFile    ResumeKind = "file"
	ResumeExternalLink ResumeKind = "link"
)

// ResumeReference is a tagged reference to an applicant's resume.
// A zero value means no resume was provided.
type ResumeReference struct {
	Kind ResumeKind `json:"resumeKind,omitempty"`
	Ref  string     `json:"resumePath,omitempty"`
}

// IsZero reports whether no resume reference is present.
func (r ResumeReference) IsZero() bool {
	return r.Ref == ""
}

// LocalFile builds a reference to an uploaded file on disk.
func LocalFile(path string) ResumeReference {
	return ResumeReference{Kind: ResumeLocalFile, Ref: path}
}

// ExternalLink builds a reference to a resume hosted elsewhere.
func ExternalLink(url string) ResumeReference {
	return ResumeReference{Kind: ResumeExternalLink, Ref: url}
}

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Inquiry is a demo/contact request from the public contact form.
// Immutable after creation.
type Inquiry struct {
	ID        int       `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Industry  string    `json:"industry"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// JobApplication is a candidate submission, either from the careers form
// or synthesized from a chat conversation.
type JobApplication struct {
	ID              int             `json:"id"`
	FullName        string          `json:"fullName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Position        string          `json:"position"`
	Experience      string          `json:"experience"`
	Message         string          `json:"message,omitempty"`
	Resume          ResumeReference `json:"resume"`
	ApplicationType ApplicationType `json:"applicationType"`
	// Internship-only fields, advisory: populated only for internship
	// applications but not enforced by a constraint.
	Education        string    `json:"education,omitempty"`
	University       string    `json:"university,omitempty"`
	GraduationYear   string    `json:"graduationYear,omitempty"`
	AvailabilityDate string    `json:"availabilityDate,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type JobListing struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Requirements    string    `json:"requirements"`
	Type            string    `json:"type"`
	Location        string    `json:"location"`
	Experience      string    `json:"experience"`
	IsActive        bool      `json:"isActive"`
	ListingCategory string    `json:"listingCategory"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ChatConversation is a chat session keyed by a client-persisted session id.
type ChatConversation struct {
	ID            int       `json:"id"`
	SessionID     string    `json:"sessionId"`
	UserEmail     string    `json:"userEmail,omitempty"`
	UserName      string    `json:"userName,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	Category      string    `json:"category"`
	Status        string    `json:"status"`
}

type ChatMessage struct {
	ID                   int            `json:"id"`
	ConversationID       int            `json:"conversationId"`
	Sender               MessageSender  `json:"sender"`
	Content              string         `json:"content"`
	Timestamp            time.Time      `json:"timestamp"`
	AttachmentPath       string         `json:"attachmentUrl,omitempty"`
	AttachmentType       string         `json:"attachmentType,omitempty"`
	IsApplicationRequest bool           `json:"isApplicationRequest"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}
