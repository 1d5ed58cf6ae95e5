package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/qadetector/internal/model"
)

const cleanPage = `<!DOCTYPE html>
<html lang="en">
<head><title>Home</title><meta name="viewport" content="width=device-width, initial-scale=1"></head>
<body>
  <h1>Welcome</h1>
  <h2>About</h2>
  <p>Hello there.</p>
  <img src="/logo.png" alt="Company logo">
  <img src="/spacer.gif" role="presentation">
  <a href="/about">About us</a>
  <button>Go</button>
  <label for="q">Search</label><input id="q" type="text">
  <ul><li>One</li><li>Two</li></ul>
</body>
</html>`

func ruleIDs(issues []model.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Metadata["rule_id"].(string))
	}
	return out
}

func TestAccessibilityCheck_CleanPage(t *testing.T) {
	t.Parallel()

	res, err := NewAccessibilityCheck().Run(context.Background(), &model.Content{URL: "https://example.com/", HTML: cleanPage})
	require.NoError(t, err)
	assert.Empty(t, res.Issues, "unexpected rules: %v", ruleIDs(res.Issues))
	assert.Equal(t, 100, res.Score)
}

func TestAccessibilityCheck_CountsRulesNotNodes(t *testing.T) {
	t.Parallel()

	html := `<html><head></head><body>
<h1>Hi</h1>
<img src="/a.png"><img src="/b.png">
<a href="/x"></a>
</body></html>`

	res, err := NewAccessibilityCheck().Run(context.Background(), &model.Content{URL: "https://example.com/", HTML: html})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"image-alt", "html-has-lang", "document-title", "link-name"}, ruleIDs(res.Issues))
	assert.Equal(t, 80, res.Score)

	for _, is := range res.Issues {
		if is.Metadata["rule_id"] != "image-alt" {
			continue
		}
		assert.Equal(t, model.IssueMissingAltText, is.Kind)
		assert.Equal(t, model.SeverityCritical, is.Severity)
		assert.NotEmpty(t, is.Selector)
		assert.Len(t, is.Metadata["nodes"], 2)
		assert.Equal(t, "https://dequeuniversity.com/rules/axe/4.10/image-alt", is.Metadata["help_url"])
	}
}

func TestAccessibilityCheck_ClientImagesWithoutAlt(t *testing.T) {
	t.Parallel()

	content := &model.Content{
		URL:  "https://example.com/",
		HTML: cleanPage,
		Images: []model.Image{
			{Src: "/logo.png", Alt: ""}, // present in markup with alt
			{Src: "https://example.com/lazy.png", Alt: "  "},
			{Src: "/described.png", Alt: "Chart"},
		},
	}
	res, err := NewAccessibilityCheck().Run(context.Background(), content)
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, model.IssueMissingAltText, res.Issues[0].Kind)
	assert.Equal(t, `img[src="https://example.com/lazy.png"]`, res.Issues[0].Selector)
}

func TestAccessibilityCheck_IndividualRules(t *testing.T) {
	t.Parallel()

	wrap := func(body string) string {
		return `<!DOCTYPE html><html lang="en"><head><title>t</title></head><body><h1>h</h1>` + body + `</body></html>`
	}

	tests := []struct {
		name string
		html string
		rule string
	}{
		{"input image", wrap(`<input type="IMAGE" src="/go.png">`), "input-image-alt"},
		{"empty button", wrap(`<button></button>`), "button-name"},
		{"unlabelled input", wrap(`<input type="email">`), "label"},
		{"untitled iframe", wrap(`<iframe src="/x"></iframe>`), "frame-title"},
		{"duplicate id", wrap(`<p id="a">1</p><p id="a">2</p>`), "duplicate-id"},
		{"skipped heading", wrap(`<h3>deep</h3>`), "heading-order"},
		{"empty heading", wrap(`<h2> </h2>`), "empty-heading"},
		{"bad list", wrap(`<ul><div>x</div></ul>`), "list"},
		{"zoom disabled", `<!DOCTYPE html><html lang="en"><head><title>t</title><meta name="Viewport" content="width=device-width, user-scalable=no"></head><body><h1>h</h1></body></html>`, "meta-viewport"},
		{"delayed refresh", `<!DOCTYPE html><html lang="en"><head><title>t</title><meta http-equiv="refresh" content="5; url=/next"></head><body><h1>h</h1></body></html>`, "meta-refresh"},
		{"no h1", `<!DOCTYPE html><html lang="en"><head><title>t</title></head><body><h2>h</h2></body></html>`, "page-has-heading-one"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := NewAccessibilityCheck().Run(context.Background(), &model.Content{URL: "https://example.com/", HTML: tt.html})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.rule}, ruleIDs(res.Issues))
		})
	}
}

func TestAccessibilityCheck_HiddenAndLabelledElementsPass(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html><html lang="en"><head><title>t</title></head><body><h1>h</h1>
<div hidden><img src="/h.png"></div>
<img src="/x.png" aria-label="Diagram">
<span id="lbl">Email</span><input type="email" aria-labelledby="lbl">
<label>Name <input type="text"></label>
<a href="/home"><img src="/home.png" alt="Home"></a>
<input type="submit">
</body></html>`

	res, err := NewAccessibilityCheck().Run(context.Background(), &model.Content{URL: "https://example.com/", HTML: html})
	require.NoError(t, err)
	assert.Empty(t, res.Issues, "unexpected rules: %v", ruleIDs(res.Issues))
}

func TestAccessibilityCheck_EveryRuleViolated(t *testing.T) {
	t.Parallel()

	// No lang, no title, no h1, plus one violation of every other rule.
	html := `<html><head><meta name="viewport" content="maximum-scale=1"><meta http-equiv="refresh" content="3"></head><body>
<h2></h2><h4>x</h4><img src="/a"><input type="image"><a href="/"></a><button></button>
<input type="text"><iframe></iframe><p id="d"></p><p id="d"></p><ol><span></span></ol>
</body></html>`
	res, err := NewAccessibilityCheck().Run(context.Background(), &model.Content{HTML: html})
	require.NoError(t, err)
	assert.Len(t, res.Issues, len(DefaultRules()))
	assert.Equal(t, 25, res.Score)
}

func TestImpactSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.SeverityCritical, ImpactCritical.Severity())
	assert.Equal(t, model.SeverityCritical, ImpactSerious.Severity())
	assert.Equal(t, model.SeverityWarning, ImpactModerate.Severity())
	assert.Equal(t, model.SeverityInfo, ImpactMinor.Severity())
	assert.Equal(t, model.SeverityNone, Impact("").Severity())
}
