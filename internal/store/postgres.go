package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/prdmaker/prdmaker/internal/core"
)

// apiKeyTTL is how long a stored provider credential stays usable.
const apiKeyTTL = "24 hours"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS api_keys (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	provider   TEXT NOT NULL,
	api_key    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS projects (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL REFERENCES users(id),
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS prd_documents (
	id         UUID PRIMARY KEY,
	project_id UUID NOT NULL REFERENCES projects(id),
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS features (
	id             UUID PRIMARY KEY,
	project_id     UUID NOT NULL REFERENCES projects(id),
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	api_endpoint   TEXT NOT NULL DEFAULT '',
	request_params JSONB,
	priority       TEXT NOT NULL DEFAULT 'medium',
	related_pages  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS tasks (
	id              UUID PRIMARY KEY,
	feature_id      UUID NOT NULL REFERENCES features(id),
	description     TEXT NOT NULL,
	assignee        TEXT NOT NULL DEFAULT '',
	estimated_hours DOUBLE PRECISION,
	status          TEXT NOT NULL DEFAULT 'pending',
	priority        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS generated_documents (
	id         UUID PRIMARY KEY,
	project_id UUID NOT NULL REFERENCES projects(id),
	doc_type   TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS integrations (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL REFERENCES users(id),
	service     TEXT NOT NULL,
	api_key     TEXT NOT NULL,
	service_url TEXT NOT NULL DEFAULT '',
	project_key TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, service)
);
`

// Postgres implements Store over a Postgres database via the pgx stdlib
// driver.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres opens the database, verifies connectivity, and ensures the
// schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) UserByToken(ctx context.Context, token string) (*User, error) {
	var u User
	err := p.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > now()`,
		token,
	).Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return &u, nil
}

func (p *Postgres) SaveAPIKey(ctx context.Context, userID, provider, apiKey string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, user_id, provider, api_key) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userID, provider, apiKey,
	)
	if err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	return nil
}

func (p *Postgres) GetAPIKey(ctx context.Context, userID, provider string) (string, error) {
	var key string
	err := p.db.QueryRowContext(ctx, `
		SELECT api_key FROM api_keys
		WHERE user_id = $1 AND provider = $2 AND created_at > now() - interval '`+apiKeyTTL+`'
		ORDER BY created_at DESC LIMIT 1`,
		userID, provider,
	).Scan(&key)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get API key: %w", err)
	}
	return key, nil
}

func (p *Postgres) CreateProject(ctx context.Context, userID, name, description string) (*Project, error) {
	proj := Project{ID: uuid.NewString(), UserID: userID, Name: name, Description: description}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, user_id, name, description) VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		proj.ID, userID, name, description,
	).Scan(&proj.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &proj, nil
}

func (p *Postgres) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var proj Project
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, created_at FROM projects WHERE id = $1`,
		projectID,
	).Scan(&proj.ID, &proj.UserID, &proj.Name, &proj.Description, &proj.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &proj, nil
}

func (p *Postgres) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, created_at FROM projects
		WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var proj Project
		if err := rows.Scan(&proj.ID, &proj.UserID, &proj.Name, &proj.Description, &proj.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, proj)
	}
	return projects, rows.Err()
}

func (p *Postgres) SavePRDDocument(ctx context.Context, projectID, content string) (*PRDDocument, error) {
	doc := PRDDocument{ID: uuid.NewString(), ProjectID: projectID, Content: content}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO prd_documents (id, project_id, content) VALUES ($1, $2, $3)
		RETURNING created_at`,
		doc.ID, projectID, content,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save PRD document: %w", err)
	}
	return &doc, nil
}

func (p *Postgres) GetPRDDocument(ctx context.Context, projectID string) (*PRDDocument, error) {
	var doc PRDDocument
	err := p.db.QueryRowContext(ctx, `
		SELECT id, project_id, content, created_at FROM prd_documents
		WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`,
		projectID,
	).Scan(&doc.ID, &doc.ProjectID, &doc.Content, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get PRD document: %w", err)
	}
	return &doc, nil
}

func (p *Postgres) SaveFeatures(ctx context.Context, projectID string, features []core.Feature) ([]FeatureRecord, error) {
	records := make([]FeatureRecord, 0, len(features))
	for _, f := range features {
		var params []byte
		if f.RequestParams != nil {
			b, err := json.Marshal(f.RequestParams)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request params: %w", err)
			}
			params = b
		}

		rec := FeatureRecord{ID: uuid.NewString(), ProjectID: projectID, Feature: f}
		err := p.db.QueryRowContext(ctx, `
			INSERT INTO features (id, project_id, name, description, api_endpoint, request_params, priority, related_pages)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at`,
			rec.ID, projectID, f.Name, f.Description, f.APIEndpoint, params, string(f.Priority), f.RelatedPages,
		).Scan(&rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to save feature %q: %w", f.Name, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Postgres) ListFeatures(ctx context.Context, projectID string) ([]FeatureRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, project_id, name, description, api_endpoint, request_params, priority, related_pages, created_at
		FROM features WHERE project_id = $1 ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	defer rows.Close()

	var records []FeatureRecord
	for rows.Next() {
		var rec FeatureRecord
		var params []byte
		var priority string
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.Name, &rec.Description, &rec.APIEndpoint,
			&params, &priority, &rec.RelatedPages, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		rec.Priority = core.Priority(priority)
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rec.RequestParams); err != nil {
				return nil, fmt.Errorf("failed to unmarshal request params: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *Postgres) SaveTasks(ctx context.Context, featureID string, tasks []core.Task) ([]TaskRecord, error) {
	records := make([]TaskRecord, 0, len(tasks))
	for _, t := range tasks {
		rec := TaskRecord{ID: uuid.NewString(), FeatureID: featureID, Task: t}
		err := p.db.QueryRowContext(ctx, `
			INSERT INTO tasks (id, feature_id, description, assignee, estimated_hours, status, priority)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at`,
			rec.ID, featureID, t.Description, t.Assignee, t.EstimatedHours, string(t.Status), string(t.Priority),
		).Scan(&rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to save task: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Postgres) ListTasks(ctx context.Context, featureID string) ([]TaskRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, feature_id, description, assignee, estimated_hours, status, priority, created_at
		FROM tasks WHERE feature_id = $1 ORDER BY created_at`,
		featureID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var records []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var status, priority string
		if err := rows.Scan(&rec.ID, &rec.FeatureID, &rec.Description, &rec.Assignee,
			&rec.EstimatedHours, &status, &priority, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		rec.Status = core.Status(status)
		rec.Task.Priority = core.Priority(priority)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (p *Postgres) SaveGeneratedDocument(ctx context.Context, projectID string, docType core.ArtifactType, content string) (*GeneratedDocument, error) {
	doc := GeneratedDocument{ID: uuid.NewString(), ProjectID: projectID, Type: docType, Content: content}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO generated_documents (id, project_id, doc_type, content) VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		doc.ID, projectID, string(docType), content,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save generated document: %w", err)
	}
	return &doc, nil
}

func (p *Postgres) GetGeneratedDocument(ctx context.Context, projectID string, docType core.ArtifactType) (*GeneratedDocument, error) {
	var doc GeneratedDocument
	var dt string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, project_id, doc_type, content, created_at FROM generated_documents
		WHERE project_id = $1 AND doc_type = $2 ORDER BY created_at DESC LIMIT 1`,
		projectID, string(docType),
	).Scan(&doc.ID, &doc.ProjectID, &dt, &doc.Content, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated document: %w", err)
	}
	doc.Type = core.ArtifactType(dt)
	return &doc, nil
}

func (p *Postgres) SaveIntegration(ctx context.Context, userID, service, apiKey, serviceURL, projectKey string) (*Integration, error) {
	integ := Integration{ID: uuid.NewString(), UserID: userID, Service: service,
		APIKey: apiKey, ServiceURL: serviceURL, ProjectKey: projectKey}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO integrations (id, user_id, service, api_key, service_url, project_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, service) DO UPDATE
		SET api_key = EXCLUDED.api_key, service_url = EXCLUDED.service_url, project_key = EXCLUDED.project_key
		RETURNING id, created_at`,
		integ.ID, userID, service, apiKey, serviceURL, projectKey,
	).Scan(&integ.ID, &integ.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save integration: %w", err)
	}
	return &integ, nil
}

func (p *Postgres) GetIntegration(ctx context.Context, userID, service string) (*Integration, error) {
	var integ Integration
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, service, api_key, service_url, project_key, created_at
		FROM integrations WHERE user_id = $1 AND service = $2`,
		userID, service,
	).Scan(&integ.ID, &integ.UserID, &integ.Service, &integ.APIKey, &integ.ServiceURL, &integ.ProjectKey, &integ.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return &integ, nil
}

func (p *Postgres) DeleteIntegration(ctx context.Context, userID, service string) error {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM integrations WHERE user_id = $1 AND service = $2`,
		userID, service,
	)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
