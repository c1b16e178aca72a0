package store

import (
	"context"
	"errors"
	"time"

	"github.com/prdmaker/prdmaker/internal/core"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// User is an authenticated account.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Project groups one PRD with its extracted artifacts.
type Project struct {
	ID          string
	UserID      string
	Name        string
	Description string
	CreatedAt   time.Time
}

// PRDDocument is one pasted PRD revision for a project.
type PRDDocument struct {
	ID        string
	ProjectID string
	Content   string
	CreatedAt time.Time
}

// FeatureRecord is a persisted, normalized feature.
type FeatureRecord struct {
	ID        string
	ProjectID string
	core.Feature
	CreatedAt time.Time
}

// TaskRecord is a persisted, normalized task.
type TaskRecord struct {
	ID        string
	FeatureID string
	core.Task
	CreatedAt time.Time
}

// GeneratedDocument is a persisted markdown artifact (function map, dev tree,
// system config).
type GeneratedDocument struct {
	ID        string
	ProjectID string
	Type      core.ArtifactType
	Content   string
	CreatedAt time.Time
}

// Integration holds a user's connection settings for an external service.
type Integration struct {
	ID         string
	UserID     string
	Service    string
	APIKey     string
	ServiceURL string
	ProjectKey string
	CreatedAt  time.Time
}

// Store is the persistence surface the server and CLI depend on.
// The analysis pipeline itself never touches it; records are created once
// after a successful analysis and read back for display and pushes.
type Store interface {
	// UserByToken resolves a session token to its user.
	UserByToken(ctx context.Context, token string) (*User, error)

	// SaveAPIKey stores a provider credential for a user.
	SaveAPIKey(ctx context.Context, userID, provider, apiKey string) error

	// GetAPIKey returns the newest credential for the provider, subject to
	// the one-day expiry policy.
	GetAPIKey(ctx context.Context, userID, provider string) (string, error)

	CreateProject(ctx context.Context, userID, name, description string) (*Project, error)
	GetProject(ctx context.Context, projectID string) (*Project, error)
	ListProjects(ctx context.Context, userID string) ([]Project, error)

	SavePRDDocument(ctx context.Context, projectID, content string) (*PRDDocument, error)
	// GetPRDDocument returns the latest PRD revision for the project.
	GetPRDDocument(ctx context.Context, projectID string) (*PRDDocument, error)

	SaveFeatures(ctx context.Context, projectID string, features []core.Feature) ([]FeatureRecord, error)
	ListFeatures(ctx context.Context, projectID string) ([]FeatureRecord, error)

	SaveTasks(ctx context.Context, featureID string, tasks []core.Task) ([]TaskRecord, error)
	ListTasks(ctx context.Context, featureID string) ([]TaskRecord, error)

	SaveGeneratedDocument(ctx context.Context, projectID string, docType core.ArtifactType, content string) (*GeneratedDocument, error)
	// GetGeneratedDocument returns the latest document of the given type.
	GetGeneratedDocument(ctx context.Context, projectID string, docType core.ArtifactType) (*GeneratedDocument, error)

	// SaveIntegration upserts connection settings for a service.
	SaveIntegration(ctx context.Context, userID, service, apiKey, serviceURL, projectKey string) (*Integration, error)
	GetIntegration(ctx context.Context, userID, service string) (*Integration, error)
	DeleteIntegration(ctx context.Context, userID, service string) error
}
