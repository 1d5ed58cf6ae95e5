// Package history persists finished scans and their issues and reads them
// back for the dashboard.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var ErrScanNotFound = fmt.Errorf("scan %w", model.ErrNotFound)

// Store is the scan history. Scans are append-only.
type Store struct {
	db     *database.DB
	logger logging.Logger
}

func NewStore(db *database.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Store{db: db, logger: logger.With(logging.Component("history"))}, nil
}

// SaveScan writes the scan row and every issue in one transaction. An empty
// scan ID is filled in. Any failure is reported as model.ErrPersistence.
func (s *Store) SaveScan(ctx context.Context, scan *model.Scan) error {
	if scan == nil {
		return fmt.Errorf("%w: nil scan", model.ErrPersistence)
	}
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}

	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO scans
                 (id, project_id, page_url, started_at, completed_at, triggered_by, user_email,
                  overall_score, accessibility_score, spelling_score, html_validation_score)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			scan.ID, scan.ProjectID, scan.PageURL,
			scan.StartedAt.UTC().UnixMilli(), nullTime(scan.CompletedAt),
			string(scan.TriggeredBy), nullString(scan.UserEmail),
			scan.OverallScore,
			nullInt(scan.AccessibilityScore), nullInt(scan.SpellingScore), nullInt(scan.HTMLValidationScore),
		)
		if err != nil {
			return fmt.Errorf("insert scan: %w", err)
		}

		if len(scan.Issues) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, s.db.Rebind(
			`INSERT INTO scan_results
                 (id, scan_id, position, issue_type, severity, element_selector,
                  issue_description, suggested_fix, metadata)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare issue insert: %w", err)
		}
		defer stmt.Close()

		for i, is := range scan.Issues {
			meta, err := encodeMetadata(is.Metadata)
			if err != nil {
				return fmt.Errorf("issue %d metadata: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx,
				uuid.New().String(), scan.ID, i, string(is.Kind),
				nullString(string(is.Severity)), nullString(is.Selector),
				nullString(is.Description), nullString(is.SuggestedFix), meta,
			); err != nil {
				return fmt.Errorf("insert issue %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.logger.Debug("scan saved",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "issues", Value: len(scan.Issues)})
	return nil
}

const scanColumns = `id, project_id, page_url, started_at, completed_at, triggered_by, user_email,
       overall_score, accessibility_score, spelling_score, html_validation_score`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*model.Scan, error) {
	var (
		sc                        model.Scan
		started                   int64
		completed                 sql.NullInt64
		trigger                   string
		email                     sql.NullString
		access, spelling, htmlVal sql.NullInt64
	)
	if err := row.Scan(&sc.ID, &sc.ProjectID, &sc.PageURL, &started, &completed, &trigger, &email,
		&sc.OverallScore, &access, &spelling, &htmlVal); err != nil {
		return nil, err
	}
	sc.StartedAt = time.UnixMilli(started).UTC()
	if completed.Valid {
		sc.CompletedAt = time.UnixMilli(completed.Int64).UTC()
	}
	sc.TriggeredBy = model.TriggerSource(trigger)
	sc.UserEmail = email.String
	sc.AccessibilityScore = intPtr(access)
	sc.SpellingScore = intPtr(spelling)
	sc.HTMLValidationScore = intPtr(htmlVal)
	return &sc, nil
}

// GetScan returns a scan with its issues in their original order.
func (s *Store) GetScan(ctx context.Context, id string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+scanColumns+` FROM scans WHERE id = ?`), id)
	sc, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT issue_type, severity, element_selector, issue_description, suggested_fix, metadata
           FROM scan_results
          WHERE scan_id = ?
          ORDER BY position`), id)
	if err != nil {
		return nil, fmt.Errorf("get issues: %w", err)
	}
	defer rows.Close()

	sc.Issues = []model.Issue{}
	for rows.Next() {
		var (
			kind                                string
			severity, selector, desc, fix, meta sql.NullString
		)
		if err := rows.Scan(&kind, &severity, &selector, &desc, &fix, &meta); err != nil {
			return nil, err
		}
		is := model.Issue{
			Kind:         model.IssueKind(kind),
			Severity:     model.Severity(severity.String),
			Selector:     selector.String,
			Description:  desc.String,
			SuggestedFix: fix.String,
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &is.Metadata); err != nil {
				s.logger.Warn("undecodable issue metadata", logging.Field{Key: "scan_id", Value: id}, logging.Err(err))
			}
		}
		sc.Issues = append(sc.Issues, is)
	}
	return sc, rows.Err()
}

// ListScans returns a project's scans, newest first, without issues.
// limit <= 0 selects DefaultListLimit.
func (s *Store) ListScans(ctx context.Context, projectID string, limit int) ([]model.Scan, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(
		`SELECT `+scanColumns+`
           FROM scans
          WHERE project_id = ?
          ORDER BY started_at DESC, id
          LIMIT ?`), projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	out := []model.Scan{}
	for rows.Next() {
		sc, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

func encodeMetadata(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixMilli(), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
