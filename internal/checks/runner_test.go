package checks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
)

type stubCheck struct {
	name model.CheckName
	run  func(ctx context.Context, c *model.Content) (*model.CheckResult, error)
}

func (s stubCheck) Name() model.CheckName { return s.name }

func (s stubCheck) Run(ctx context.Context, c *model.Content) (*model.CheckResult, error) {
	return s.run(ctx, c)
}

func fixedCheck(name model.CheckName, score int, issues ...model.Issue) stubCheck {
	return stubCheck{name: name, run: func(context.Context, *model.Content) (*model.CheckResult, error) {
		return &model.CheckResult{Check: name, Score: score, Issues: issues}, nil
	}}
}

func TestRegistry_EnabledFollowsSettingsAndOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		fixedCheck(model.CheckHTMLValidation, 1),
		fixedCheck(model.CheckSpelling, 1),
		fixedCheck(model.CheckAccessibility, 1),
		nil,
	)
	require.NoError(t, reg.Validate())

	names := func(cs []Check) []model.CheckName {
		out := []model.CheckName{}
		for _, c := range cs {
			out = append(out, c.Name())
		}
		return out
	}

	assert.Equal(t, model.AllChecks, names(reg.Enabled(model.DefaultSettings())))
	assert.Equal(t, []model.CheckName{model.CheckAccessibility, model.CheckHTMLValidation},
		names(reg.Enabled(model.Settings{Accessibility: true, HTMLValidation: true})))
	assert.Empty(t, reg.Enabled(model.Settings{}))
}

func TestRegistry_ValidateMissing(t *testing.T) {
	t.Parallel()
	assert.Error(t, NewRegistry(fixedCheck(model.CheckSpelling, 1)).Validate())
}

func TestRunner_RunsEnabledChecksOnly(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		fixedCheck(model.CheckAccessibility, 90),
		fixedCheck(model.CheckSpelling, 80),
		fixedCheck(model.CheckHTMLValidation, 70),
	)
	r := NewRunner(reg, time.Second, logging.Nop{})

	var mu sync.Mutex
	var seen []model.CheckName
	res := r.Run(context.Background(), &model.Content{}, model.Settings{Spelling: true, HTMLValidation: true},
		func(res *model.CheckResult) {
			mu.Lock()
			seen = append(seen, res.Check)
			mu.Unlock()
		})

	require.Len(t, res, 2)
	assert.NotContains(t, res, model.CheckAccessibility)
	assert.Equal(t, 80, res[model.CheckSpelling].Score)
	assert.Equal(t, 70, res[model.CheckHTMLValidation].Score)
	assert.NotNil(t, res[model.CheckSpelling].Issues)
	assert.ElementsMatch(t, []model.CheckName{model.CheckSpelling, model.CheckHTMLValidation}, seen)
}

func TestRunner_IsolatesFailures(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(
		stubCheck{name: model.CheckAccessibility, run: func(context.Context, *model.Content) (*model.CheckResult, error) {
			return nil, errors.New("engine crashed")
		}},
		stubCheck{name: model.CheckSpelling, run: func(context.Context, *model.Content) (*model.CheckResult, error) {
			panic("boom")
		}},
		fixedCheck(model.CheckHTMLValidation, 68, model.Issue{Kind: model.IssueHTMLError}),
	)
	r := NewRunner(reg, time.Second, nil)

	res := r.Run(context.Background(), &model.Content{}, model.DefaultSettings(), nil)
	require.Len(t, res, 3)

	for _, name := range []model.CheckName{model.CheckAccessibility, model.CheckSpelling} {
		got := res[name]
		assert.True(t, got.Failed, name)
		assert.Equal(t, 100, got.Score, name)
		assert.Empty(t, got.Issues, name)
		assert.NotEmpty(t, got.Error, name)
	}
	assert.Contains(t, res[model.CheckSpelling].Error, "panic: boom")
	assert.False(t, res[model.CheckHTMLValidation].Failed)
	assert.Equal(t, 68, res[model.CheckHTMLValidation].Score)
}

func TestRunner_TimeoutYieldsNeutralResult(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	reg := NewRegistry(
		// Ignores its context entirely.
		stubCheck{name: model.CheckAccessibility, run: func(context.Context, *model.Content) (*model.CheckResult, error) {
			<-block
			return &model.CheckResult{Score: 0}, nil
		}},
		fixedCheck(model.CheckSpelling, 95),
	)
	r := NewRunner(reg, 50*time.Millisecond, logging.Nop{})

	start := time.Now()
	res := r.Run(context.Background(), &model.Content{}, model.Settings{Accessibility: true, Spelling: true}, nil)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.True(t, res[model.CheckAccessibility].Failed)
	assert.Equal(t, 100, res[model.CheckAccessibility].Score)
	assert.Equal(t, 95, res[model.CheckSpelling].Score)
}

func TestRunner_NilResultIsFailure(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubCheck{name: model.CheckSpelling, run: func(context.Context, *model.Content) (*model.CheckResult, error) {
		return nil, nil
	}})
	res := NewRunner(reg, 0, nil).Run(context.Background(), &model.Content{}, model.Settings{Spelling: true}, nil)
	assert.True(t, res[model.CheckSpelling].Failed)
}

func TestRunner_RealChecksAreDeterministic(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewAccessibilityCheck(), NewSpellingCheck(nil), NewHTMLValidationCheck(nil))
	r := NewRunner(reg, 5*time.Second, nil)
	content := &model.Content{
		URL:  "https://example.com/",
		HTML: `<html><body><img src="/a.png"><p>I recieve teh mail</p></div></body></html>`,
		Text: "I recieve teh mail",
	}

	a := r.Run(context.Background(), content, model.DefaultSettings(), nil)
	b := r.Run(context.Background(), content, model.DefaultSettings(), nil)
	assert.Equal(t, a, b)
	assert.Equal(t, 80, a[model.CheckSpelling].Score)
	assert.False(t, a[model.CheckHTMLValidation].Failed)
	assert.Less(t, a[model.CheckHTMLValidation].Score, 100)
}
