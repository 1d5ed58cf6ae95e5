package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/qadetector/internal/guard"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress: one event per finished check
	Check     model.CheckName `json:"check,omitempty"`
	Score     *int            `json:"score,omitempty"`
	Failed    bool            `json:"failed,omitempty"`
	Processed int             `json:"processed,omitempty"`
	Total     int             `json:"total,omitempty"`

	// For results
	Scan *model.Scan `json:"scan,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type Job struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	ProjectID string            `json:"project_id"`
	URL       string            `json:"url"`
	UserEmail string            `json:"user_email,omitempty"`
	Status    JobStatus         `json:"status"`
	Error     string            `json:"error,omitempty"`
	Checks    []model.CheckName `json:"checks"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Events    chan JobEvent     `json:"-"`

	// Set when the job is done.
	Scan      *model.Scan `json:"scan,omitempty"`
	Persisted *bool       `json:"persisted,omitempty"`

	results map[model.CheckName]*model.CheckResult
}

// Results returns the per-check results of a finished job.
func (j *Job) Results() map[model.CheckName]*model.CheckResult { return j.results }

// Orchestrator runs manual scans as background jobs and publishes their
// progress as events.
type Orchestrator struct {
	cfg      *Config
	scanner  *Scanner
	projects ProjectSource
	logger   logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
	closed     bool
}

// NewOrchestrator ties together config, scanner and logger.
func NewOrchestrator(cfg *Config, scanner *Scanner, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	o := &Orchestrator{
		cfg:     cfg,
		scanner: scanner,
		logger:  logger.With(logging.Component("orchestrator")),
	}
	if scanner != nil {
		o.projects = scanner.projects
	}
	return o
}

func (o *Orchestrator) ensureJobMaps() {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	o.jobs[job.ID] = job
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

func (o *Orchestrator) setCancel(jobID string, cancel context.CancelFunc) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
	o.jobCancels[jobID] = cancel
}

func (o *Orchestrator) deleteCancel(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobCancels, jobID)
}

func (o *Orchestrator) getCancel(jobID string) context.CancelFunc {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobCancels[jobID]
}

// ErrOrchestratorClosed is returned by StartScanJob after Close.
var ErrOrchestratorClosed = errors.New("orchestrator closed")

// StartScanJob validates the target synchronously and then scans it in the
// background as a manual scan attributed to email. Unknown projects and
// off-domain URLs fail here, before a job exists.
func (o *Orchestrator) StartScanJob(ctx context.Context, projectID, pageURL, email string) (*Job, error) {
	if o.scanner == nil {
		return nil, errors.New("orchestrator has no scanner")
	}
	project, err := o.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := guard.Check(pageURL, project.Domain); err != nil {
		return nil, err
	}

	o.ensureJobMaps()
	o.jobsMu.Lock()
	closed := o.closed
	o.jobsMu.Unlock()
	if closed {
		return nil, ErrOrchestratorClosed
	}

	jobID := uuid.New().String()
	planned := o.scanner.Planned(project)
	job := &Job{
		ID:        jobID,
		Type:      "scan",
		ProjectID: project.ID,
		URL:       pageURL,
		UserEmail: email,
		Status:    JobPending,
		Checks:    planned,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}
	o.setJob(job)

	// Jobs outlive the request that started them.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.setCancel(jobID, cancel)

	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: JobPending,
		Total:  len(planned),
	})

	go o.runScanJob(jobCtx, job.ID, project, model.ScanRequest{
		URL:         pageURL,
		TriggeredBy: model.TriggerManual,
		UserEmail:   email,
	}, len(planned))

	return o.GetJob(jobID), nil
}

func (o *Orchestrator) runScanJob(jobCtx context.Context, jobID string, project *model.Project, req model.ScanRequest, total int) {
	defer func() {
		o.updateJob(jobID, func(j *Job) { j.EndedAt = time.Now().UTC() })
		if cancel := o.getCancel(jobID); cancel != nil {
			cancel()
		}
		o.deleteCancel(jobID)

		o.jobsMu.Lock()
		j := o.jobs[jobID]
		o.jobsMu.Unlock()
		if j != nil && j.Events != nil {
			close(j.Events)
		}
		o.scheduleEviction(jobID)
	}()

	o.updateJob(jobID, func(j *Job) { j.Status = JobRunning })
	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: JobRunning,
		Total:  total,
	})

	var (
		progressMu sync.Mutex
		processed  int
	)
	progress := func(res *model.CheckResult) {
		progressMu.Lock()
		processed++
		n := processed
		progressMu.Unlock()
		score := res.Score
		o.emitJobEvent(jobID, JobEvent{
			JobID:     jobID,
			Type:      JobEventProgress,
			Check:     res.Check,
			Score:     &score,
			Failed:    res.Failed,
			Processed: n,
			Total:     total,
		})
	}

	result, err := o.scanner.ScanProject(jobCtx, project, req, progress)

	if jobCtx.Err() != nil {
		o.finishJob(jobID, JobCanceled, jobCtx.Err().Error())
		return
	}
	if err != nil {
		o.logger.Warn("scan job failed",
			logging.Field{Key: "job_id", Value: jobID},
			logging.Err(err))
		o.finishJob(jobID, JobFailed, err.Error())
		return
	}

	persisted := result.Persist == nil
	o.updateJob(jobID, func(j *Job) {
		j.Status = JobDone
		j.Scan = result.Scan
		j.Persisted = &persisted
		j.results = result.Checks
	})
	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventResult,
		Status: JobDone,
		Scan:   result.Scan,
	})
}

func (o *Orchestrator) finishJob(jobID string, status JobStatus, msg string) {
	o.updateJob(jobID, func(j *Job) {
		j.Status = status
		j.Error = msg
	})
	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: status,
		Error:  msg,
	})
}

func (o *Orchestrator) scheduleEviction(jobID string) {
	retention := o.cfg.Server.JobRetention
	if retention <= 0 {
		return
	}
	time.AfterFunc(retention, func() {
		o.jobsMu.Lock()
		defer o.jobsMu.Unlock()
		delete(o.jobs, jobID)
	})
}

func (o *Orchestrator) CancelJob(jobID string) {
	cancel := o.getCancel(jobID)
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a snapshot of the job, or nil if it is unknown or evicted.
// The snapshot shares the live Events channel.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

// ListJobs returns snapshots of the known jobs, newest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		cp := *j
		out = append(out, &cp)
	}
	o.jobsMu.Unlock()
	sort.Slice(out, func(a, b int) bool { return out[a].StartedAt.After(out[b].StartedAt) })
	return out
}

// Close cancels running jobs and rejects new ones.
func (o *Orchestrator) Close() {
	o.jobsMu.Lock()
	o.closed = true
	cancels := make([]context.CancelFunc, 0, len(o.jobCancels))
	for _, c := range o.jobCancels {
		cancels = append(cancels, c)
	}
	o.jobsMu.Unlock()
	for _, c := range cancels {
		c()
	}
}
