package server

import (
	"time"

	"github.com/raysh454/qadetector/internal/model"
)

// ScanRequest is what the widget (or any API caller) posts to /api/scan.
// When html is empty the page is loaded server-side.
type ScanRequest struct {
	Token       string              `json:"token" example:"9f2c...e41a"`
	URL         string              `json:"url" example:"https://shop.example.com/cart"`
	Title       string              `json:"title,omitempty" example:"Cart"`
	HTML        string              `json:"html,omitempty"`
	Text        string              `json:"text,omitempty"`
	Images      []model.Image       `json:"images,omitempty"`
	Links       []model.Link        `json:"links,omitempty"`
	TriggeredBy model.TriggerSource `json:"triggered_by,omitempty" example:"widget"`
}

func (r ScanRequest) submitted() bool {
	return r.HTML != "" || r.Text != "" || r.Title != "" || r.Images != nil || r.Links != nil
}

// AccessibilityReport holds one issue per violated rule. Score is null
// when the check is disabled for the project.
type AccessibilityReport struct {
	Issues []model.Issue `json:"issues"`
	Score  *int          `json:"score" example:"85"`
}

type SpellingError struct {
	Word        string   `json:"word" example:"recieve"`
	Suggestions []string `json:"suggestions" example:"receive"`
	Context     string   `json:"context" example:"i recieve teh package"`
}

type SpellingReport struct {
	Errors []SpellingError `json:"errors"`
	Score  *int            `json:"score" example:"80"`
}

type HTMLMessage struct {
	Type    string `json:"type" example:"error"`
	Message string `json:"message" example:"Stray end tag div."`
	Extract string `json:"extract,omitempty"`
	Line    int    `json:"line,omitempty" example:"12"`
	Column  int    `json:"column,omitempty"`
}

type HTMLReport struct {
	Errors   []HTMLMessage `json:"errors"`
	Warnings []HTMLMessage `json:"warnings"`
	Score    *int          `json:"score" example:"68"`
}

// ScanResponse is the full result bundle of one scan. scanId is null when
// the result could not be stored.
type ScanResponse struct {
	URL           string              `json:"url" example:"https://shop.example.com/cart"`
	Timestamp     time.Time           `json:"timestamp"`
	Accessibility AccessibilityReport `json:"accessibility"`
	Spelling      SpellingReport      `json:"spelling"`
	HTML          HTMLReport          `json:"html"`
	OverallScore  int                 `json:"overallScore" example:"82"`
	ScanID        *string             `json:"scanId"`
}

// VerifyTokenRequest carries an embed token.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type VerifyTokenResponse struct {
	Valid     bool   `json:"valid"`
	ProjectID string `json:"projectId,omitempty"`
}

type CheckAuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Member        bool   `json:"member"`
}

// ShouldScanRequest mirrors the widget's stored session. lastScan is unix
// milliseconds; 0 means never.
type ShouldScanRequest struct {
	LastScan int64  `json:"lastScan" example:"1767225600000"`
	PageURL  string `json:"pageUrl" example:"https://shop.example.com/"`
	URL      string `json:"url" example:"https://shop.example.com/cart"`
}

type ShouldScanResponse struct {
	ShouldScan bool `json:"shouldScan"`
}

// CreateProjectRequest registers a domain.
type CreateProjectRequest struct {
	Name   string `json:"name" example:"Marketing site"`
	Domain string `json:"domain" example:"example.com"`
}

// ProjectResponse is a project together with its embed snippet.
type ProjectResponse struct {
	*model.Project
	ScriptTag string `json:"script_tag,omitempty"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ScriptTag string `json:"script_tag"`
}

// StartScanRequest starts a manual background scan.
type StartScanRequest struct {
	URL string `json:"url" example:"https://example.com/pricing"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
