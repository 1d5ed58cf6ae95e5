// Package widget holds the server side of the embeddable script: the tag
// handed to site owners, the script itself and the auto-scan rule.
package widget

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
	"time"
)

// AutoScanWindow is how long a page scan suppresses another automatic scan
// of the same URL for the same viewer.
const AutoScanWindow = 24 * time.Hour

// ScriptPath is where the server exposes the widget script.
const ScriptPath = "/widget.js"

//go:embed assets/widget.js
var script []byte

// Script returns the embeddable widget source.
func Script() []byte { return script }

// SessionState is what the widget remembers about the viewer's last scan.
type SessionState struct {
	LastScan time.Time `json:"lastScan"`
	PageURL  string    `json:"pageUrl"`
}

// ShouldAutoScan decides whether an anonymous viewer's page load triggers a
// scan: when nothing is stored, when the stored scan was for another URL, or
// when it is older than AutoScanWindow.
func ShouldAutoScan(state *SessionState, pageURL string, now time.Time) bool {
	if state == nil || state.LastScan.IsZero() {
		return true
	}
	if state.PageURL != pageURL {
		return true
	}
	return now.Sub(state.LastScan) > AutoScanWindow
}

// ScriptTag is the snippet a site owner pastes into their pages.
func ScriptTag(publicURL, token string) string {
	base := strings.TrimRight(publicURL, "/")
	return fmt.Sprintf(`<script src="%s%s" data-token="%s" async></script>`,
		html.EscapeString(base), ScriptPath, html.EscapeString(token))
}
