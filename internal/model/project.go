package model

import "time"

// Settings toggles the checks (and notifications) for a project.
type Settings struct {
	Accessibility  bool `json:"accessibility"`
	Spelling       bool `json:"spelling"`
	HTMLValidation bool `json:"html_validation"`
	Notifications  bool `json:"notifications_enabled"`
}

// DefaultSettings enables everything.
func DefaultSettings() Settings {
	return Settings{
		Accessibility:  true,
		Spelling:       true,
		HTMLValidation: true,
		Notifications:  true,
	}
}

// Enabled reports whether the named check should run for a project.
func (s Settings) Enabled(name CheckName) bool {
	switch name {
	case CheckAccessibility:
		return s.Accessibility
	case CheckSpelling:
		return s.Spelling
	case CheckHTMLValidation:
		return s.HTMLValidation
	default:
		return false
	}
}

// Project is a registered website domain owned by a dashboard user.
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Settings  Settings  `json:"settings"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
