package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account record. PasswordHash is bcrypt.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is one interview practice session. Feedback fields are zero until
// the session is completed.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	Question        string     `json:"question"`
	Transcript      string     `json:"transcript,omitempty"`
	AudioKey        string     `json:"audio_s3_key,omitempty"`
	DurationSeconds int        `json:"duration_seconds,omitempty"`
	Feedback        *Feedback  `json:"feedback,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Feedback is the persisted assessment for a completed session.
type Feedback struct {
	OverallScore       float64  `json:"overall_score"`
	CommunicationScore float64  `json:"communication_score"`
	TechnicalScore     float64  `json:"technical_score"`
	ClarityScore       float64  `json:"clarity_score"`
	Strengths          []string `json:"strengths"`
	Improvements       []string `json:"improvements"`
	DetailedFeedback   string   `json:"detailed_feedback"`
}

// Completion carries everything attached to a session when it finishes.
type Completion struct {
	Transcript      string
	AudioKey        string
	DurationSeconds int
	Feedback        Feedback
}

// Upload tracks a confirmed object-storage upload.
type Upload struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Key         string    `json:"s3_key"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Store persists users, interview sessions, and upload records.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)

	CreateSession(ctx context.Context, userID, title, question string) (*Session, error)
	SessionByID(ctx context.Context, id, userID string) (*Session, error)
	ListSessions(ctx context.Context, userID string, limit, offset int) ([]*Session, error)
	CompleteSession(ctx context.Context, id, userID string, c Completion) (*Session, error)

	CreateUpload(ctx context.Context, userID, key, contentType string, size int64, uploadedAt time.Time) (*Upload, error)

	Close() error
}
