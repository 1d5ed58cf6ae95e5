package registry

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/guard"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

// tokenBytes is the entropy of an embed token; it is hex encoded.
const tokenBytes = 32

var (
	ErrProjectNotFound = fmt.Errorf("project %w", model.ErrNotFound)
	ErrInvalidProject  = errors.New("invalid project")
)

// Registry owns projects: their domain, per-check settings and the embed
// token that authorizes scan requests.
type Registry struct {
	db     *database.DB
	logger logging.Logger
	now    func() time.Time
}

// NewRegistry returns a Registry over an already migrated database.
func NewRegistry(db *database.DB, logger logging.Logger) (*Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Registry{
		db:     db,
		logger: logger.With(logging.Component("registry")),
		now:    time.Now,
	}, nil
}

// NewToken returns a fresh random embed token.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateProject registers a domain for userID. The domain is reduced to a
// bare lower-case hostname; settings default to everything enabled and a
// token is issued immediately.
func (r *Registry) CreateProject(ctx context.Context, userID, name, domain string) (*model.Project, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidProject)
	}
	host, err := guard.NormalizeDomain(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if name == "" {
		name = host
	}
	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	p := &model.Project{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Domain:    host,
		Settings:  model.DefaultSettings(),
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO projects
             (id, user_id, name, domain, embed_token,
              accessibility, spelling, html_validation, notifications_enabled,
              created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.UserID, p.Name, p.Domain, p.Token,
		p.Settings.Accessibility, p.Settings.Spelling, p.Settings.HTMLValidation, p.Settings.Notifications,
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	r.logger.Info("project created",
		logging.Field{Key: "project_id", Value: p.ID},
		logging.Field{Key: "domain", Value: p.Domain})
	return p, nil
}

const projectColumns = `id, user_id, name, domain, embed_token,
       accessibility, spelling, html_validation, notifications_enabled,
       created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p                model.Project
		token            sql.NullString
		created, updated int64
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Domain, &token,
		&p.Settings.Accessibility, &p.Settings.Spelling, &p.Settings.HTMLValidation, &p.Settings.Notifications,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	p.Token = token.String
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}

func (r *Registry) getOne(ctx context.Context, where string, arg any) (*model.Project, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(
		`SELECT `+projectColumns+` FROM projects WHERE `+where+` LIMIT 1`), arg)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// GetProject returns a project by id.
func (r *Registry) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return r.getOne(ctx, `id = ?`, id)
}

// ProjectByToken resolves an embed token. Unknown or empty tokens yield
// model.ErrInvalidToken.
func (r *Registry) ProjectByToken(ctx context.Context, token string) (*model.Project, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, model.ErrInvalidToken
	}
	p, err := r.getOne(ctx, `embed_token = ?`, token)
	if errors.Is(err, ErrProjectNotFound) {
		return nil, model.ErrInvalidToken
	}
	return p, err
}

// ListProjects returns the projects owned by userID, newest first. An empty
// userID lists every project.
func (r *Registry) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateSettings replaces the project's settings.
func (r *Registry) UpdateSettings(ctx context.Context, id string, s model.Settings) (*model.Project, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE projects
            SET accessibility = ?, spelling = ?, html_validation = ?, notifications_enabled = ?, updated_at = ?
          WHERE id = ?`),
		s.Accessibility, s.Spelling, s.HTMLValidation, s.Notifications, r.now().UTC().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrProjectNotFound
	}
	return r.GetProject(ctx, id)
}

// EnsureToken returns the project's token, issuing one only when the
// project has none. An issued token is never replaced.
func (r *Registry) EnsureToken(ctx context.Context, id string) (string, error) {
	p, err := r.GetProject(ctx, id)
	if err != nil {
		return "", err
	}
	if p.Token != "" {
		return p.Token, nil
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	// The IS NULL guard keeps a concurrent issuer from being overwritten.
	_, err = r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE projects SET embed_token = ?, updated_at = ? WHERE id = ? AND embed_token IS NULL`),
		token, r.now().UTC().UnixMilli(), id)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	p, err = r.GetProject(ctx, id)
	if err != nil {
		return "", err
	}
	if p.Token == token {
		r.logger.Info("token issued", logging.Field{Key: "project_id", Value: id})
	}
	return p.Token, nil
}

// DeleteProject removes a project together with its scan history.
func (r *Registry) DeleteProject(ctx context.Context, id string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(
			`DELETE FROM scan_results WHERE scan_id IN (SELECT id FROM scans WHERE project_id = ?)`), id); err != nil {
			return fmt.Errorf("delete scan results: %w", err)
		}
		if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM scans WHERE project_id = ?`), id); err != nil {
			return fmt.Errorf("delete scans: %w", err)
		}
		res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM projects WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
}
