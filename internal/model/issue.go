package model

// IssueKind classifies a finding.
type IssueKind string

const (
	IssueMissingAltText         IssueKind = "missing-alt-text"
	IssueSpellingError          IssueKind = "spelling-error"
	IssueHTMLError              IssueKind = "html-error"
	IssueHTMLWarning            IssueKind = "html-warning"
	IssueBrokenLink             IssueKind = "broken-link"
	IssueAccessibilityViolation IssueKind = "accessibility-violation"
)

// Valid reports whether k is one of the known kinds.
func (k IssueKind) Valid() bool {
	switch k {
	case IssueMissingAltText, IssueSpellingError, IssueHTMLError,
		IssueHTMLWarning, IssueBrokenLink, IssueAccessibilityViolation:
		return true
	}
	return false
}

// Severity of an issue. The zero value means the severity is unknown and is
// stored as NULL.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityNone     Severity = "none"
)

// Issue is a single finding produced by a check. Issues are immutable once
// attached to a scan.
type Issue struct {
	Kind         IssueKind      `json:"issue_type"`
	Severity     Severity       `json:"severity,omitempty"`
	Description  string         `json:"issue_description"`
	Selector     string         `json:"element_selector,omitempty"`
	SuggestedFix string         `json:"suggested_fix,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
