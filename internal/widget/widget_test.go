package widget

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldAutoScan(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	page := "https://example.com/a"

	tests := []struct {
		name  string
		state *SessionState
		want  bool
	}{
		{"no state", nil, true},
		{"zero state", &SessionState{}, true},
		{"other page", &SessionState{LastScan: now.Add(-time.Minute), PageURL: "https://example.com/b"}, true},
		{"recent same page", &SessionState{LastScan: now.Add(-time.Hour), PageURL: page}, false},
		{"exactly 24h", &SessionState{LastScan: now.Add(-AutoScanWindow), PageURL: page}, false},
		{"older than 24h", &SessionState{LastScan: now.Add(-AutoScanWindow - time.Second), PageURL: page}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ShouldAutoScan(tt.state, page, now))
		})
	}
}

func TestScriptTag(t *testing.T) {
	t.Parallel()

	tag := ScriptTag("https://qa.corp.example/", "abc123")
	assert.Equal(t, `<script src="https://qa.corp.example/widget.js" data-token="abc123" async></script>`, tag)

	assert.NotContains(t, ScriptTag("https://x", `"><img>`), `"><img>`)
}

func TestScript_Embedded(t *testing.T) {
	t.Parallel()

	src := string(Script())
	assert.True(t, strings.Contains(src, "data-token"))
	assert.True(t, strings.Contains(src, "/api/scan"))
}
