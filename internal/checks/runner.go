package checks

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

// ProgressFunc is called once per finished check, from the check's goroutine.
type ProgressFunc func(res *model.CheckResult)

// Runner executes enabled checks concurrently and isolates their failures.
type Runner struct {
	registry *Registry
	timeout  time.Duration
	logger   logging.Logger
}

func NewRunner(registry *Registry, timeout time.Duration, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Runner{
		registry: registry,
		timeout:  timeout,
		logger:   logger.With(logging.Component("check-runner")),
	}
}

// Planned returns the names of the checks Run would execute for settings.
func (r *Runner) Planned(settings model.Settings) []model.CheckName {
	enabled := r.registry.Enabled(settings)
	out := make([]model.CheckName, len(enabled))
	for i, c := range enabled {
		out[i] = c.Name()
	}
	return out
}

// Run executes every check enabled by settings. The returned map holds one
// entry per enabled check; a check that errors, panics or times out
// contributes the neutral result instead.
func (r *Runner) Run(ctx context.Context, content *model.Content, settings model.Settings, progress ProgressFunc) map[model.CheckName]*model.CheckResult {
	enabled := r.registry.Enabled(settings)
	results := make(map[model.CheckName]*model.CheckResult, len(enabled))
	var mu sync.Mutex

	var g errgroup.Group
	for _, c := range enabled {
		c := c
		g.Go(func() error {
			res := r.runOne(ctx, c, content)
			mu.Lock()
			results[c.Name()] = res
			mu.Unlock()
			if progress != nil {
				progress(res)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, c Check, content *model.Content) *model.CheckResult {
	name := c.Name()
	start := time.Now()

	res, err := r.safeRun(ctx, c, content)
	if err == nil && res == nil {
		err = fmt.Errorf("check returned no result")
	}
	if err != nil {
		cerr := model.NewCheckError(name, err)
		r.logger.Warn("check failed; using neutral result",
			logging.Field{Key: "check", Value: string(name)},
			logging.Err(cerr))
		neutral := model.NeutralResult(name)
		neutral.Failed = true
		neutral.Error = cerr.Error()
		return neutral
	}

	res.Check = name
	if res.Issues == nil {
		res.Issues = []model.Issue{}
	}
	r.logger.Debug("check finished",
		logging.Field{Key: "check", Value: string(name)},
		logging.Field{Key: "issues", Value: len(res.Issues)},
		logging.Field{Key: "score", Value: res.Score},
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	return res
}

type outcome struct {
	res *model.CheckResult
	err error
}

// safeRun bounds a check by the runner timeout and converts panics into
// errors. A check that ignores its context is abandoned once the deadline
// passes.
func (r *Runner) safeRun(ctx context.Context, c Check, content *model.Content) (*model.CheckResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("check panicked",
					logging.Field{Key: "check", Value: string(c.Name())},
					logging.Field{Key: "panic", Value: fmt.Sprint(p)},
					logging.Field{Key: "stack", Value: string(debug.Stack())})
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		res, err := c.Run(ctx, content)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
