package model

import "time"

// TriggerSource records what started a scan.
type TriggerSource string

const (
	TriggerWidget TriggerSource = "widget"
	TriggerManual TriggerSource = "manual"
	TriggerAPI    TriggerSource = "api"
)

// Valid reports whether t is a known trigger source.
func (t TriggerSource) Valid() bool {
	return t == TriggerWidget || t == TriggerManual || t == TriggerAPI
}

// ScanRequest is the inbound trigger. Content is nil when the page should be
// fetched server-side.
type ScanRequest struct {
	Token       string        `json:"token"`
	URL         string        `json:"url"`
	Content     *Content      `json:"content,omitempty"`
	TriggeredBy TriggerSource `json:"triggered_by,omitempty"`
	UserEmail   string        `json:"user_email,omitempty"`
}

// Scan is the persisted record of one scan. A nil per-check score means the
// check was disabled for the project.
type Scan struct {
	ID                  string        `json:"id"`
	ProjectID           string        `json:"project_id"`
	PageURL             string        `json:"page_url"`
	StartedAt           time.Time     `json:"started_at"`
	CompletedAt         time.Time     `json:"completed_at"`
	TriggeredBy         TriggerSource `json:"triggered_by"`
	UserEmail           string        `json:"user_email,omitempty"`
	OverallScore        int           `json:"overall_score"`
	AccessibilityScore  *int          `json:"accessibility_score"`
	SpellingScore       *int          `json:"spelling_score"`
	HTMLValidationScore *int          `json:"html_validation_score"`
	Issues              []Issue       `json:"issues,omitempty"`
}

// CheckScore returns the per-check score field for name.
func (s *Scan) CheckScore(name CheckName) *int {
	switch name {
	case CheckAccessibility:
		return s.AccessibilityScore
	case CheckSpelling:
		return s.SpellingScore
	case CheckHTMLValidation:
		return s.HTMLValidationScore
	}
	return nil
}

// SetCheckScore stores score for name.
func (s *Scan) SetCheckScore(name CheckName, score int) {
	v := score
	switch name {
	case CheckAccessibility:
		s.AccessibilityScore = &v
	case CheckSpelling:
		s.SpellingScore = &v
	case CheckHTMLValidation:
		s.HTMLValidationScore = &v
	}
}

// ScanResult is what the pipeline hands back to the caller. Checks holds an
// entry only for enabled checks.
type ScanResult struct {
	Scan    *Scan                      `json:"scan"`
	Checks  map[CheckName]*CheckResult `json:"checks"`
	Persist error                      `json:"-"`
}
