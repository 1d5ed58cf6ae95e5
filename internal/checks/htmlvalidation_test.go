package checks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/webclient"
)

type fakeValidator struct {
	msgs []ValidationMessage
	err  error
}

func (f fakeValidator) Name() string { return "fake" }

func (f fakeValidator) Validate(context.Context, string) ([]ValidationMessage, error) {
	return f.msgs, f.err
}

func TestHTMLValidationCheck_ScoresErrorsAndWarnings(t *testing.T) {
	t.Parallel()

	v := fakeValidator{msgs: []ValidationMessage{
		{Type: MessageError, Message: "Stray end tag div.", Line: 3, Column: 5, Extract: "</div>"},
		{Type: MessageError, Message: "Duplicate ID a."},
		{Type: MessageError, Message: "Unclosed element span."},
		{Type: MessageWarning, Message: "Consider adding a lang attribute."},
		{Type: MessageInfo, Message: "Trailing slash on void elements has no effect."},
	}}

	res, err := NewHTMLValidationCheck(v).Run(context.Background(), &model.Content{HTML: "<p>x"})
	require.NoError(t, err)

	require.Len(t, res.Issues, 4)
	assert.Equal(t, 68, res.Score)

	first := res.Issues[0]
	assert.Equal(t, model.IssueHTMLError, first.Kind)
	assert.Equal(t, model.SeverityCritical, first.Severity)
	assert.Equal(t, "Stray end tag div.", first.Description)
	assert.Empty(t, first.Selector)
	assert.Equal(t, 3, first.Metadata["line"])
	assert.Equal(t, "</div>", first.Metadata["extract"])
	assert.Equal(t, "fake", first.Metadata["validator"])

	last := res.Issues[3]
	assert.Equal(t, model.IssueHTMLWarning, last.Kind)
	assert.Equal(t, model.SeverityWarning, last.Severity)
}

func TestHTMLValidationCheck_ValidatorFailureIsError(t *testing.T) {
	t.Parallel()

	v := fakeValidator{err: errors.New("unreachable")}
	_, err := NewHTMLValidationCheck(v).Run(context.Background(), &model.Content{HTML: "<p>x</p>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake validator")
}

func TestHTMLValidationCheck_EmptyHTMLIsError(t *testing.T) {
	t.Parallel()

	_, err := NewHTMLValidationCheck(nil).Run(context.Background(), &model.Content{HTML: "  "})
	assert.Error(t, err)
}

// ─── Local validator ───────────────────────────────────────────────────

func messagesOf(t *testing.T, doc string) []ValidationMessage {
	t.Helper()
	msgs, err := NewLocalValidator().Validate(context.Background(), doc)
	require.NoError(t, err)
	return msgs
}

func containsMessage(msgs []ValidationMessage, typ MessageType, substr string) bool {
	for _, m := range msgs {
		if m.Type == typ && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

func TestLocalValidator_CleanDocument(t *testing.T) {
	t.Parallel()

	doc := `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Ok</title><script>if (a < b) {}</script></head>
<body>
<p>Para one
<p>Para two<br>
<ul><li>a<li>b</ul>
<svg viewBox="0 0 1 1"><path d="M0 0"/><g/></svg>
<img src="a.png" alt="a">
</body>
</html>`
	assert.Empty(t, messagesOf(t, doc))
}

func TestLocalValidator_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		typ  MessageType
		want string
	}{
		{"missing doctype", `<html lang="en"><title>x</title></html>`, MessageError, "without seeing a doctype"},
		{"stray end tag", `<!DOCTYPE html><html lang="en"><body></span></body></html>`, MessageError, "Stray end tag span"},
		{"void end tag", `<!DOCTYPE html><html lang="en"><body><img src=a alt=""></img></body></html>`, MessageError, "Stray end tag img"},
		{"unclosed", `<!DOCTYPE html><html lang="en"><body><div><span>x</div></body></html>`, MessageError, "unclosed span"},
		{"unclosed at eof", `<!DOCTYPE html><html lang="en"><body><div>`, MessageError, "Unclosed element div"},
		{"duplicate id", `<!DOCTYPE html><html lang="en"><p id="x"></p><p id="x"></p></html>`, MessageError, "Duplicate ID x"},
		{"duplicate attribute", `<!DOCTYPE html><html lang="en"><p class="a" class="b"></p></html>`, MessageError, "Duplicate attribute class"},
		{"self closing div", `<!DOCTYPE html><html lang="en"><div/></div></html>`, MessageError, "Self-closing syntax"},
		{"obsolete", `<!DOCTYPE html><html lang="en"><center>x</center></html>`, MessageError, "center element is obsolete"},
		{"img without alt", `<!DOCTYPE html><html lang="en"><img src="a"></html>`, MessageError, "must have an alt attribute"},
		{"no lang", `<!DOCTYPE html><html><title>x</title></html>`, MessageWarning, "lang attribute"},
		{"script type", `<!DOCTYPE html><html lang="en"><script type="text/javascript"></script></html>`, MessageWarning, "type attribute is unnecessary"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msgs := messagesOf(t, tt.doc)
			assert.True(t, containsMessage(msgs, tt.typ, tt.want), "got %+v", msgs)
		})
	}
}

func TestLocalValidator_LineNumbers(t *testing.T) {
	t.Parallel()

	doc := "<!DOCTYPE html>\n<html lang=\"en\">\n<body>\n\n</em>\n</body></html>"
	msgs := messagesOf(t, doc)
	require.Len(t, msgs, 1)
	assert.Equal(t, 5, msgs[0].Line)
}

func TestLocalValidator_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalValidator().Validate(ctx, "<p>x</p>")
	assert.ErrorIs(t, err, context.Canceled)
}

// ─── Nu validator ──────────────────────────────────────────────────────

func newTestWebClient(t *testing.T) webclient.WebClient {
	t.Helper()
	c, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), logging.Nop{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNuValidator_MapsMessages(t *testing.T) {
	t.Parallel()

	var gotBody, gotType, gotOut string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		gotOut = r.URL.Query().Get("out")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"messages":[
			{"type":"error","message":"Stray end tag div.","lastLine":4,"firstColumn":2,"extract":"</div>","hiliteStart":1,"hiliteLength":6},
			{"type":"info","subType":"warning","message":" Consider adding a lang attribute. "},
			{"type":"info","message":"Trailing slash on void elements has no effect."}
		]}`)
	}))
	defer ts.Close()

	v := NewNuValidator(ts.URL+"/nu/", newTestWebClient(t))
	msgs, err := v.Validate(context.Background(), "<p>x</div>")
	require.NoError(t, err)

	assert.Equal(t, "<p>x</div>", gotBody)
	assert.True(t, strings.HasPrefix(gotType, "text/html"))
	assert.Equal(t, "json", gotOut)

	require.Len(t, msgs, 3)
	assert.Equal(t, ValidationMessage{
		Type: MessageError, Message: "Stray end tag div.", Extract: "</div>",
		Line: 4, Column: 2, HiliteStart: 1, HiliteLen: 6,
	}, msgs[0])
	assert.Equal(t, MessageWarning, msgs[1].Type)
	assert.Equal(t, "Consider adding a lang attribute.", msgs[1].Message)
	assert.Equal(t, MessageInfo, msgs[2].Type)
}

func TestNuValidator_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusServiceUnavailable, `busy`},
		{"bad json", http.StatusOK, `{"messages":`},
		{"non-document error", http.StatusOK, `{"messages":[{"type":"non-document-error","message":"IO"}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			_, err := NewNuValidator(ts.URL, newTestWebClient(t)).Validate(context.Background(), "<p>")
			assert.Error(t, err)
		})
	}
}

func TestNewNuValidator_DefaultEndpoint(t *testing.T) {
	t.Parallel()
	v := NewNuValidator("", nil)
	assert.Equal(t, DefaultNuURL, v.endpoint)
	assert.Equal(t, "nu", v.Name())
}
