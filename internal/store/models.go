package store

import "time"

type Client struct {
	ID           string
	Name         string
	Slug         string
	BrandColor   string
	ContactEmail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TeamMember is never hard-deleted; offboarding flips Status to inactive.
// ClientID is set exactly when Role is client.
type TeamMember struct {
	ID                    string
	Email                 string
	DisplayName           string
	PasswordHash          string
	Role                  string
	Status                string
	ClientID              string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

const (
	MemberActive   = "active"
	MemberInactive = "inactive"
)

// Post lifecycle fields (Status, Locked, VisibleToClient,
// AwaitingClientApproval) are written only through the transition and
// recomputation code paths, never ad hoc.
type Post struct {
	ID                     string
	ClientID               string
	Title                  string
	Body                   string
	Status                 string
	Locked                 bool
	VisibleToClient        bool
	AwaitingClientApproval bool
	PublishDate            *time.Time
	CreatedBy              string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	AuthorName string
	Scope      string
	Body       string
	CreatedAt  time.Time
}

// Approval is append-only evidence; rows are never updated after insert.
type Approval struct {
	ID        int64
	PostID    string
	ActorID   string
	ActorName string
	Decision  string
	Note      string
	CreatedAt time.Time
}

type PostPlatform struct {
	ID            string
	PostID        string
	Platform      string
	AccountHandle string
	CreatedAt     time.Time
}

type MediaAsset struct {
	ID          string
	PostID      string
	ObjectKey   string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   time.Time
}

// StatusCount is one bucket of the recompute / summary responses.
type StatusCount struct {
	Status string
	Count  int64
}
