// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ErrorMessages returns a copy of the recorded error messages.
func (l *DummyLogger) ErrorMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Errors...)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// By default it returns Body with status 200 (or "ok:<url>" when Body is nil).
// Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	ResponseDelay time.Duration
	FailURLs      map[string]bool
	Body          []byte
	StatusCode    int
	mu            sync.Mutex
	Requests      []*webclient.Request
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if d.ResponseDelay > 0 {
		select {
		case <-time.After(d.ResponseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if d.FailURLs != nil && d.FailURLs[req.URL] {
		return nil, &errString{"dummy fetch fail for " + req.URL}
	}

	body := d.Body
	if body == nil {
		body = []byte("ok:" + req.URL)
	}
	status := d.StatusCode
	if status == 0 {
		status = 200
	}
	return &webclient.Response{
		Request:    req,
		Body:       body,
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Close() error { return nil }

// ─── Projects ──────────────────────────────────────────────────────────

// DummyProjects is an in-memory project source keyed by id and token.
type DummyProjects struct {
	mu       sync.Mutex
	projects map[string]*model.Project
}

// NewDummyProjects indexes ps by id and token.
func NewDummyProjects(ps ...*model.Project) *DummyProjects {
	d := &DummyProjects{projects: map[string]*model.Project{}}
	for _, p := range ps {
		d.projects[p.ID] = p
	}
	return d
}

func (d *DummyProjects) GetProject(_ context.Context, id string) (*model.Project, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, model.ErrNotFound
}

func (d *DummyProjects) ProjectByToken(_ context.Context, token string) (*model.Project, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.projects {
		if token != "" && p.Token == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.ErrInvalidToken
}

// ─── Scan store ────────────────────────────────────────────────────────

// DummyScanStore records saved scans. Set Err to make every save fail.
type DummyScanStore struct {
	mu    sync.Mutex
	Err   error
	Saved []*model.Scan
}

func (s *DummyScanStore) SaveScan(_ context.Context, scan *model.Scan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Saved = append(s.Saved, scan)
	return nil
}

// Count returns the number of saved scans.
func (s *DummyScanStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Saved)
}

// ─── Extractor ─────────────────────────────────────────────────────────

// DummyExtractor returns HTML and Text for every URL, or Err. Block makes
// Extract wait for context cancellation.
type DummyExtractor struct {
	HTML  string
	Text  string
	Err   error
	Block bool

	mu    sync.Mutex
	Calls []string
}

func (d *DummyExtractor) Extract(ctx context.Context, pageURL string) (*model.Content, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, pageURL)
	d.mu.Unlock()
	if d.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return &model.Content{URL: pageURL, HTML: d.HTML, Text: d.Text, Source: model.SourceHTTP}, nil
}

// CallCount returns how many times Extract was called.
func (d *DummyExtractor) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

// ─── Notifier ──────────────────────────────────────────────────────────

// DummyNotifier records low-score notifications.
type DummyNotifier struct {
	mu    sync.Mutex
	Err   error
	Scans []*model.Scan
}

func (n *DummyNotifier) NotifyLowScore(_ context.Context, _ *model.Project, scan *model.Scan) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Scans = append(n.Scans, scan)
	return n.Err
}

func (n *DummyNotifier) Close() error { return nil }

// Count returns the number of notifications sent.
func (n *DummyNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Scans)
}

// ErrDummy is a generic failure for doubles.
var ErrDummy = errors.New("dummy failure")

type errString struct{ s string }

func (e *errString) Error() string { return e.s }
