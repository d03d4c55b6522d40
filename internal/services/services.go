package services

import (
	"context"
	"errors"
	"time"

	"task-assistant/internal/models"
	"task-assistant/internal/vector"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidStatus        = errors.New("invalid status")
)

type AuthService interface {
	// Register creates a user with a hashed password, opens a session
	// and returns the opaque session token.
	//
	// It returns ErrUserAlreadyExists if the username or email is taken.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// Login authenticates by username or email plus password.
	//
	// It returns ErrUserNotFound if no active user matches the login or
	// ErrUserPasswordMismatch if the password doesn't match.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// LoginWithGoogle signs in a user coming back from the Google OAuth
	// callback, creating the account on first login.
	LoginWithGoogle(ctx context.Context, params GoogleLoginParams) (*LoginResult, error)

	// Logout invalidates the presented session token.
	Logout(ctx context.Context, token string) error

	// DeleteAccount removes the user, their sessions, their tasks and
	// their vector namespace.
	DeleteAccount(ctx context.Context, userID string) error
}

type SessionService interface {
	// GetUserBySession resolves an opaque token to its user.
	//
	// It returns ErrSessionNotFound for unknown tokens and
	// ErrSessionExpired for expired ones. Expired sessions are deleted
	// on the way out.
	GetUserBySession(ctx context.Context, token string) (*models.User, error)

	// CleanupExpired deletes all expired sessions and reports how many
	// were removed.
	CleanupExpired(ctx context.Context) (int64, error)
}

type TaskService interface {
	Create(ctx context.Context, params CreateTaskParams) (*models.Task, error)
	GetByID(ctx context.Context, userID, taskID string) (*models.Task, error)
	ListByUser(ctx context.Context, userID string, filter TaskFilter) ([]*models.Task, error)

	// Update applies the non-nil fields of upd and returns the updated
	// task. It returns ErrTaskNotFound when the task doesn't exist or
	// belongs to another user.
	Update(ctx context.Context, userID, taskID string, upd TaskUpdate) (*models.Task, error)

	SetCompleted(ctx context.Context, userID, taskID string, completed bool) (*models.Task, error)
	Delete(ctx context.Context, userID, taskID string) error

	// Search runs a semantic query against the user's vector namespace
	// and hydrates the matches from postgres.
	Search(ctx context.Context, userID, query string, k int) ([]SearchResult, error)

	Statistics(ctx context.Context, userID string) (*TaskStatistics, error)
}

// Embedder turns texts into embedding vectors. Implemented by the
// Hugging Face inference client in internal/vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the slice of the Pinecone surface the task service
// needs. Namespaces hold one user's vectors each.
type VectorIndex interface {
	Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error
	Query(ctx context.Context, namespace string, values []float32, topK int) ([]vector.Match, error)
	Delete(ctx context.Context, namespace string, ids []string) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	Fingerprint string
}

type LoginParams struct {
	// Login is a username or an email, both are accepted.
	Login       string
	Password    string
	Fingerprint string
}

type GoogleLoginParams struct {
	Subject     string
	Email       string
	Name        string
	Fingerprint string
}

type LoginResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

type CreateTaskParams struct {
	UserID      string
	Title       string
	Description string
	Priority    string
	Status      string
	Tags        []string
	DueDate     *time.Time
}

type TaskFilter struct {
	Status   string
	Priority string
}

type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	Tags        []string
	DueDate     *time.Time
	Completed   *bool
}

type SearchResult struct {
	Task  *models.Task
	Score float32
}

type TaskStatistics struct {
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}
