package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/qadetector/internal/checks"
	"github.com/raysh454/qadetector/internal/extractor"
	"github.com/raysh454/qadetector/internal/guard"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/notify"
	"github.com/raysh454/qadetector/internal/scoring"
)

// ProjectSource resolves the project a scan runs for.
type ProjectSource interface {
	ProjectByToken(ctx context.Context, token string) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
}

// ScanStore persists finished scans.
type ScanStore interface {
	SaveScan(ctx context.Context, scan *model.Scan) error
}

// Scanner runs the scan pipeline: token, domain guard, extraction, checks,
// scoring, persistence and notification.
type Scanner struct {
	projects  ProjectSource
	extractor extractor.Extractor
	runner    *checks.Runner
	store     ScanStore
	notifier  notify.Notifier
	threshold int
	logger    logging.Logger
	now       func() time.Time
}

// ScannerOptions carries the Scanner's collaborators. Extractor may be nil
// when every scan submits its own content; Store and Notifier may be nil.
type ScannerOptions struct {
	Projects       ProjectSource
	Extractor      extractor.Extractor
	Runner         *checks.Runner
	Store          ScanStore
	Notifier       notify.Notifier
	ScoreThreshold int
	Logger         logging.Logger
}

func NewScanner(opts ScannerOptions) (*Scanner, error) {
	if opts.Projects == nil {
		return nil, errors.New("scanner: project source is nil")
	}
	if opts.Runner == nil {
		return nil, errors.New("scanner: check runner is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Scanner{
		projects:  opts.Projects,
		extractor: opts.Extractor,
		runner:    opts.Runner,
		store:     opts.Store,
		notifier:  notifier,
		threshold: opts.ScoreThreshold,
		logger:    logger.With(logging.Component("scanner")),
		now:       time.Now,
	}, nil
}

// Scan authorizes req by its token and runs the pipeline for the token's
// project.
func (s *Scanner) Scan(ctx context.Context, req model.ScanRequest) (*model.ScanResult, error) {
	project, err := s.projects.ProjectByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	return s.ScanProject(ctx, project, req, nil)
}

// Planned lists the checks a scan of project will run.
func (s *Scanner) Planned(project *model.Project) []model.CheckName {
	return s.runner.Planned(project.Settings)
}

// ScanProject runs the pipeline for an already resolved project. Guard and
// extraction failures are returned with no result. Check failures become
// neutral results. A persistence failure is logged and reported through
// ScanResult.Persist only.
func (s *Scanner) ScanProject(ctx context.Context, project *model.Project, req model.ScanRequest, progress checks.ProgressFunc) (*model.ScanResult, error) {
	if project == nil {
		return nil, model.ErrInvalidToken
	}
	started := s.now().UTC()

	target, err := guard.Check(req.URL, project.Domain)
	if err != nil {
		s.logger.Warn("scan rejected",
			logging.Field{Key: "project_id", Value: project.ID},
			logging.Field{Key: "url", Value: req.URL},
			logging.Err(err))
		return nil, err
	}
	pageURL := target.String()

	content, err := s.content(ctx, pageURL, req.Content)
	if err != nil {
		s.logger.Error("content extraction failed",
			logging.Field{Key: "project_id", Value: project.ID},
			logging.Field{Key: "url", Value: pageURL},
			logging.Err(err))
		return nil, err
	}

	results := s.runner.Run(ctx, content, project.Settings, progress)

	trigger := req.TriggeredBy
	if !trigger.Valid() {
		trigger = model.TriggerAPI
	}
	scan := &model.Scan{
		ID:          uuid.New().String(),
		ProjectID:   project.ID,
		PageURL:     pageURL,
		StartedAt:   started,
		TriggeredBy: trigger,
		UserEmail:   req.UserEmail,
	}
	scoring.Aggregate(scan, results)
	scan.CompletedAt = s.now().UTC()

	out := &model.ScanResult{Scan: scan, Checks: results}
	if s.store != nil {
		if err := s.store.SaveScan(ctx, scan); err != nil {
			out.Persist = err
			s.logger.Error("scan not persisted",
				logging.Field{Key: "scan_id", Value: scan.ID},
				logging.Field{Key: "project_id", Value: project.ID},
				logging.Err(err))
		}
	}

	if notify.ShouldNotify(project, scan, s.threshold) {
		if err := s.notifier.NotifyLowScore(ctx, project, scan); err != nil {
			s.logger.Warn("low score notification failed",
				logging.Field{Key: "scan_id", Value: scan.ID},
				logging.Err(err))
		}
	}

	s.logger.Info("scan completed",
		logging.Field{Key: "scan_id", Value: scan.ID},
		logging.Field{Key: "project_id", Value: project.ID},
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "overall_score", Value: scan.OverallScore},
		logging.Field{Key: "issues", Value: len(scan.Issues)},
		logging.Field{Key: "duration", Value: scan.CompletedAt.Sub(started).String()})
	return out, nil
}

func (s *Scanner) content(ctx context.Context, pageURL string, submitted *model.Content) (*model.Content, error) {
	if submitted != nil {
		return extractor.FromSubmission(pageURL, submitted)
	}
	if s.extractor == nil {
		return nil, fmt.Errorf("%w: no content submitted and server-side extraction is unavailable", model.ErrInvalidContent)
	}
	return s.extractor.Extract(ctx, pageURL)
}
