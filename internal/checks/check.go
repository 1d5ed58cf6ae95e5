// Package checks holds the closed set of page checks and the runner that
// executes the enabled ones over a content bundle.
package checks

import (
	"context"
	"fmt"

	"github.com/raysh454/qadetector/internal/model"
)

// Check inspects a content bundle. Implementations must not modify content.
type Check interface {
	Name() model.CheckName
	Run(ctx context.Context, content *model.Content) (*model.CheckResult, error)
}

// Registry is the static set of checks known to the process.
type Registry struct {
	checks map[model.CheckName]Check
}

// NewRegistry indexes checks by name. A later check with the same name
// replaces an earlier one.
func NewRegistry(checks ...Check) *Registry {
	r := &Registry{checks: make(map[model.CheckName]Check, len(checks))}
	for _, c := range checks {
		if c != nil {
			r.checks[c.Name()] = c
		}
	}
	return r
}

// Get returns the check registered under name.
func (r *Registry) Get(name model.CheckName) (Check, bool) {
	c, ok := r.checks[name]
	return c, ok
}

// Enabled returns the registered checks switched on by settings, in report
// order.
func (r *Registry) Enabled(settings model.Settings) []Check {
	out := make([]Check, 0, len(model.AllChecks))
	for _, name := range model.AllChecks {
		if !settings.Enabled(name) {
			continue
		}
		if c, ok := r.checks[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Validate makes sure every built-in check has an implementation.
func (r *Registry) Validate() error {
	for _, name := range model.AllChecks {
		if _, ok := r.checks[name]; !ok {
			return fmt.Errorf("no implementation registered for check %q", name)
		}
	}
	return nil
}
