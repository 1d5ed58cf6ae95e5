package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/scoring"
)

// MessageType is the validator's classification of a message. Only errors
// and warnings are kept.
type MessageType string

const (
	MessageError   MessageType = "error"
	MessageWarning MessageType = "warning"
	MessageInfo    MessageType = "info"
)

// ValidationMessage is one conformance finding.
type ValidationMessage struct {
	Type        MessageType `json:"type"`
	Message     string      `json:"message"`
	Extract     string      `json:"extract,omitempty"`
	Line        int         `json:"line,omitempty"`
	Column      int         `json:"column,omitempty"`
	HiliteStart int         `json:"hilite_start,omitempty"`
	HiliteLen   int         `json:"hilite_length,omitempty"`
}

// Validator checks markup conformance.
type Validator interface {
	Name() string
	Validate(ctx context.Context, html string) ([]ValidationMessage, error)
}

// HTMLValidationCheck turns validator errors and warnings into issues.
type HTMLValidationCheck struct {
	validator Validator
}

func NewHTMLValidationCheck(v Validator) *HTMLValidationCheck {
	if v == nil {
		v = NewLocalValidator()
	}
	return &HTMLValidationCheck{validator: v}
}

func (h *HTMLValidationCheck) Name() model.CheckName { return model.CheckHTMLValidation }

func (h *HTMLValidationCheck) Run(ctx context.Context, content *model.Content) (*model.CheckResult, error) {
	if content == nil {
		return nil, fmt.Errorf("nil content")
	}
	if strings.TrimSpace(content.HTML) == "" {
		return nil, fmt.Errorf("no html to validate")
	}
	msgs, err := h.validator.Validate(ctx, content.HTML)
	if err != nil {
		return nil, fmt.Errorf("%s validator: %w", h.validator.Name(), err)
	}

	issues := []model.Issue{}
	for _, m := range msgs {
		var kind model.IssueKind
		var sev model.Severity
		switch m.Type {
		case MessageError:
			kind, sev = model.IssueHTMLError, model.SeverityCritical
		case MessageWarning:
			kind, sev = model.IssueHTMLWarning, model.SeverityWarning
		default:
			continue
		}
		meta := map[string]any{"validator": h.validator.Name()}
		if m.Extract != "" {
			meta["extract"] = m.Extract
		}
		if m.Line > 0 {
			meta["line"] = m.Line
		}
		if m.Column > 0 {
			meta["column"] = m.Column
		}
		if m.HiliteLen > 0 {
			meta["hilite_start"] = m.HiliteStart
			meta["hilite_length"] = m.HiliteLen
		}
		issues = append(issues, model.Issue{
			Kind:        kind,
			Severity:    sev,
			Description: m.Message,
			Metadata:    meta,
		})
	}

	errs, warns := scoring.HTMLCounts(issues)
	return &model.CheckResult{
		Check:  model.CheckHTMLValidation,
		Issues: issues,
		Score:  scoring.HTMLValidation(errs, warns),
	}, nil
}
