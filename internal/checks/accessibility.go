package checks

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/qadetector/internal/extractor"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/scoring"
)

const (
	helpBaseURL    = "https://dequeuniversity.com/rules/axe/4.10/"
	maxNodeHTMLLen = 250
)

// Impact levels follow the axe vocabulary.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

func (i Impact) Severity() model.Severity {
	switch i {
	case ImpactCritical, ImpactSerious:
		return model.SeverityCritical
	case ImpactModerate:
		return model.SeverityWarning
	case ImpactMinor:
		return model.SeverityInfo
	}
	return model.SeverityNone
}

// Node is one element that violates a rule.
type Node struct {
	HTML   string   `json:"html"`
	Target []string `json:"target"`
}

// Rule is one static accessibility rule evaluated over the parsed DOM.
type Rule struct {
	ID          string
	Impact      Impact
	Description string
	Help        string
	Kind        model.IssueKind
	Evaluate    func(doc *goquery.Document, content *model.Content) []Node
}

// AccessibilityCheck reports one issue per violated rule; the affected nodes
// are listed in the issue metadata. The score counts rules, not nodes.
type AccessibilityCheck struct {
	rules []Rule
}

func NewAccessibilityCheck() *AccessibilityCheck {
	return &AccessibilityCheck{rules: DefaultRules()}
}

func (a *AccessibilityCheck) Name() model.CheckName { return model.CheckAccessibility }

// Rules exposes the active ruleset.
func (a *AccessibilityCheck) Rules() []Rule { return a.rules }

func (a *AccessibilityCheck) Run(ctx context.Context, content *model.Content) (*model.CheckResult, error) {
	if content == nil {
		return nil, fmt.Errorf("nil content")
	}
	doc, err := extractor.ParseHTML(content.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	issues := []model.Issue{}
	for _, rule := range a.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nodes := rule.Evaluate(doc, content)
		if len(nodes) == 0 {
			continue
		}
		issues = append(issues, ruleIssue(rule, nodes))
	}

	return &model.CheckResult{
		Check:  model.CheckAccessibility,
		Issues: issues,
		Score:  scoring.Accessibility(len(issues)),
	}, nil
}

func ruleIssue(rule Rule, nodes []Node) model.Issue {
	selector := ""
	if len(nodes[0].Target) > 0 {
		selector = nodes[0].Target[0]
	}
	kind := rule.Kind
	if kind == "" {
		kind = model.IssueAccessibilityViolation
	}
	return model.Issue{
		Kind:         kind,
		Severity:     rule.Impact.Severity(),
		Description:  rule.Description,
		Selector:     selector,
		SuggestedFix: rule.Help,
		Metadata: map[string]any{
			"rule_id":  rule.ID,
			"impact":   string(rule.Impact),
			"help":     rule.Help,
			"help_url": helpBaseURL + rule.ID,
			"nodes":    nodes,
		},
	}
}

// DefaultRules is the built-in static ruleset.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "image-alt",
			Impact:      ImpactCritical,
			Description: "Ensures <img> elements have alternate text or a role of none or presentation",
			Help:        "Images must have alternate text",
			Kind:        model.IssueMissingAltText,
			Evaluate:    evalImageAlt,
		},
		{
			ID:          "input-image-alt",
			Impact:      ImpactCritical,
			Description: "Ensures <input type=\"image\"> elements have alternate text",
			Help:        "Image buttons must have alternate text",
			Kind:        model.IssueMissingAltText,
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("input[type]"), func(s *goquery.Selection) bool {
					return attrIs(s, "type", "image") && !hasText(s.AttrOr("alt", "")) && !hasARIAName(s)
				})
			},
		},
		{
			ID:          "html-has-lang",
			Impact:      ImpactSerious,
			Description: "Ensures every HTML document has a lang attribute",
			Help:        "<html> element must have a lang attribute",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("html"), func(s *goquery.Selection) bool {
					return !hasText(s.AttrOr("lang", "")) && !hasText(s.AttrOr("xml:lang", ""))
				})
			},
		},
		{
			ID:          "document-title",
			Impact:      ImpactSerious,
			Description: "Ensures each HTML document contains a non-empty <title> element",
			Help:        "Documents must have <title> element to aid in navigation",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				if hasText(doc.Find("title").First().Text()) {
					return nil
				}
				return collect(doc.Find("html"), func(*goquery.Selection) bool { return true })
			},
		},
		{
			ID:          "link-name",
			Impact:      ImpactSerious,
			Description: "Ensures links have discernible text",
			Help:        "Links must have discernible text",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("a[href]"), func(s *goquery.Selection) bool {
					return !hasAccessibleName(s)
				})
			},
		},
		{
			ID:          "button-name",
			Impact:      ImpactCritical,
			Description: "Ensures buttons have discernible text",
			Help:        "Buttons must have discernible text",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				buttons := collect(doc.Find("button, [role=button]"), func(s *goquery.Selection) bool {
					return !hasAccessibleName(s)
				})
				inputs := collect(doc.Find("input[type]"), func(s *goquery.Selection) bool {
					t := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "")))
					if t != "button" && t != "submit" && t != "reset" {
						return false
					}
					if t == "submit" || t == "reset" {
						// Browsers supply a default label for these when value is absent.
						if _, ok := s.Attr("value"); !ok {
							return false
						}
					}
					return !hasText(s.AttrOr("value", "")) && !hasARIAName(s)
				})
				return append(buttons, inputs...)
			},
		},
		{
			ID:          "label",
			Impact:      ImpactCritical,
			Description: "Ensures every form element has a label",
			Help:        "Form elements must have labels",
			Evaluate:    evalLabel,
		},
		{
			ID:          "frame-title",
			Impact:      ImpactSerious,
			Description: "Ensures <iframe> and <frame> elements have an accessible name",
			Help:        "Frames must have an accessible name",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("iframe, frame"), func(s *goquery.Selection) bool {
					return !hidden(s) && !hasText(s.AttrOr("title", "")) && !hasARIAName(s)
				})
			},
		},
		{
			ID:          "duplicate-id",
			Impact:      ImpactMinor,
			Description: "Ensures every id attribute value is unique",
			Help:        "id attribute value must be unique",
			Evaluate:    evalDuplicateID,
		},
		{
			ID:          "heading-order",
			Impact:      ImpactModerate,
			Description: "Ensures the order of headings is semantically correct",
			Help:        "Heading levels should only increase by one",
			Evaluate:    evalHeadingOrder,
		},
		{
			ID:          "empty-heading",
			Impact:      ImpactMinor,
			Description: "Ensures headings have discernible text",
			Help:        "Headings should not be empty",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("h1, h2, h3, h4, h5, h6"), func(s *goquery.Selection) bool {
					return !hidden(s) && !hasAccessibleName(s)
				})
			},
		},
		{
			ID:          "page-has-heading-one",
			Impact:      ImpactModerate,
			Description: "Ensures that the page, or at least one of its frames contains a level-one heading",
			Help:        "Page should contain a level-one heading",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				if doc.Find(`h1, [role=heading][aria-level="1"]`).Length() > 0 {
					return nil
				}
				return collect(doc.Find("html"), func(*goquery.Selection) bool { return true })
			},
		},
		{
			ID:          "list",
			Impact:      ImpactSerious,
			Description: "Ensures that lists are structured correctly",
			Help:        "<ul> and <ol> must only directly contain <li>, <script> or <template> elements",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("ul, ol"), func(s *goquery.Selection) bool {
					if r := s.AttrOr("role", ""); r != "" && r != "list" {
						return false
					}
					bad := false
					s.Children().Each(func(_ int, c *goquery.Selection) {
						switch goquery.NodeName(c) {
						case "li", "script", "template":
						default:
							bad = true
						}
					})
					return bad
				})
			},
		},
		{
			ID:          "meta-viewport",
			Impact:      ImpactCritical,
			Description: "Ensures <meta name=\"viewport\"> does not disable text scaling and zooming",
			Help:        "Zooming and scaling must not be disabled",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("meta[name]"), func(s *goquery.Selection) bool {
					return attrIs(s, "name", "viewport") && viewportBlocksZoom(s.AttrOr("content", ""))
				})
			},
		},
		{
			ID:          "meta-refresh",
			Impact:      ImpactCritical,
			Description: "Ensures <meta http-equiv=\"refresh\"> is not used for delayed refresh",
			Help:        "Delayed refresh under 20 hours must not be used",
			Evaluate: func(doc *goquery.Document, _ *model.Content) []Node {
				return collect(doc.Find("meta[http-equiv]"), func(s *goquery.Selection) bool {
					return attrIs(s, "http-equiv", "refresh") && refreshDelayed(s.AttrOr("content", ""))
				})
			},
		},
	}
}

// ─── Rule bodies ───────────────────────────────────────────────────────

func evalImageAlt(doc *goquery.Document, content *model.Content) []Node {
	seen := map[string]bool{}
	base, _ := url.Parse(content.URL)

	nodes := collect(doc.Find("img"), func(s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src != "" {
			seen[resolveRef(base, src)] = true
		}
		if isPresentational(s) || hidden(s) {
			return false
		}
		if _, ok := s.Attr("alt"); ok {
			return false
		}
		return !hasARIAName(s)
	})

	// Images enumerated by the widget but absent from the serialized markup
	// (e.g. injected after serialization) are judged on the alt they reported.
	for _, img := range content.Images {
		src := strings.TrimSpace(img.Src)
		if src == "" || seen[resolveRef(base, src)] {
			continue
		}
		seen[resolveRef(base, src)] = true
		if hasText(img.Alt) {
			continue
		}
		nodes = append(nodes, Node{
			HTML:   fmt.Sprintf(`<img src="%s">`, src),
			Target: []string{fmt.Sprintf(`img[src="%s"]`, cssEscapeAttr(src))},
		})
	}
	return nodes
}

func evalLabel(doc *goquery.Document, _ *model.Content) []Node {
	labelled := map[string]bool{}
	doc.Find("label[for]").Each(func(_ int, l *goquery.Selection) {
		if hasText(l.Text()) || hasARIAName(l) {
			labelled[l.AttrOr("for", "")] = true
		}
	})

	return collect(doc.Find("input, select, textarea"), func(s *goquery.Selection) bool {
		if goquery.NodeName(s) == "input" {
			switch strings.ToLower(s.AttrOr("type", "text")) {
			case "hidden", "submit", "reset", "button", "image":
				return false
			}
		}
		if hidden(s) || hasARIAName(s) || hasText(s.AttrOr("title", "")) {
			return false
		}
		if id := s.AttrOr("id", ""); id != "" && labelled[id] {
			return false
		}
		if wrap := s.ParentsFiltered("label"); wrap.Length() > 0 && hasText(wrap.First().Text()) {
			return false
		}
		return true
	})
}

func evalDuplicateID(doc *goquery.Document, _ *model.Content) []Node {
	counts := map[string]int{}
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		if id := strings.TrimSpace(s.AttrOr("id", "")); id != "" {
			counts[id]++
		}
	})
	reported := map[string]bool{}
	return collect(doc.Find("[id]"), func(s *goquery.Selection) bool {
		id := strings.TrimSpace(s.AttrOr("id", ""))
		if counts[id] < 2 || reported[id] {
			return false
		}
		reported[id] = true
		return true
	})
}

func evalHeadingOrder(doc *goquery.Document, _ *model.Content) []Node {
	prev := 0
	return collect(doc.Find("h1, h2, h3, h4, h5, h6"), func(s *goquery.Selection) bool {
		if hidden(s) {
			return false
		}
		level := int(goquery.NodeName(s)[1] - '0')
		bad := prev > 0 && level > prev+1
		prev = level
		return bad
	})
}

var (
	userScalableNo = regexp.MustCompile(`(?i)user-scalable\s*=\s*(no|0)\b`)
	maximumScale   = regexp.MustCompile(`(?i)maximum-scale\s*=\s*([0-9.]+)`)
)

func viewportBlocksZoom(content string) bool {
	if userScalableNo.MatchString(content) {
		return true
	}
	if m := maximumScale.FindStringSubmatch(content); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v < 2 {
			return true
		}
	}
	return false
}

func refreshDelayed(content string) bool {
	delay := strings.TrimSpace(strings.SplitN(content, ";", 2)[0])
	delay = strings.SplitN(delay, ",", 2)[0]
	n, err := strconv.ParseFloat(strings.TrimSpace(delay), 64)
	if err != nil {
		return false
	}
	return n > 0 && n < 72000
}

// ─── DOM helpers ───────────────────────────────────────────────────────

func collect(sel *goquery.Selection, violates func(*goquery.Selection) bool) []Node {
	var out []Node
	sel.Each(func(_ int, s *goquery.Selection) {
		if violates(s) {
			out = append(out, nodeOf(s))
		}
	})
	return out
}

func nodeOf(s *goquery.Selection) Node {
	html, err := goquery.OuterHtml(s)
	if err != nil {
		html = "<" + goquery.NodeName(s) + ">"
	}
	if len(html) > maxNodeHTMLLen {
		html = html[:maxNodeHTMLLen] + "..."
	}
	return Node{HTML: html, Target: []string{CSSPath(s)}}
}

// CSSPath builds a selector for s: "#id" when the id is unique in the
// document, otherwise a child-combinator path anchored at the closest
// uniquely identified ancestor or <html>.
func CSSPath(s *goquery.Selection) string {
	root := s.Closest("html")
	var parts []string
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		name := goquery.NodeName(cur)
		if name == "" || name == "#document" {
			break
		}
		if id := strings.TrimSpace(cur.AttrOr("id", "")); id != "" && isSimpleIdent(id) && root.Find("#"+id).Length() == 1 {
			parts = append(parts, "#"+id)
			break
		}
		if name == "html" || name == "body" || name == "head" {
			parts = append(parts, name)
			if name == "html" {
				break
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", name, cur.Index()+1))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

func isSimpleIdent(s string) bool { return identRe.MatchString(s) }

func attrIs(s *goquery.Selection, attr, want string) bool {
	return strings.EqualFold(strings.TrimSpace(s.AttrOr(attr, "")), want)
}

func hasText(s string) bool { return strings.TrimSpace(s) != "" }

func hasARIAName(s *goquery.Selection) bool {
	if hasText(s.AttrOr("aria-label", "")) {
		return true
	}
	if ids := strings.Fields(s.AttrOr("aria-labelledby", "")); len(ids) > 0 {
		doc := s.Closest("html")
		for _, id := range ids {
			if isSimpleIdent(id) && hasText(doc.Find("#"+id).Text()) {
				return true
			}
		}
	}
	return false
}

// hasAccessibleName covers the common naming sources for links, buttons and
// headings: text content, ARIA labels, title, and alt of contained images.
func hasAccessibleName(s *goquery.Selection) bool {
	if hasARIAName(s) || hasText(s.AttrOr("title", "")) {
		return true
	}
	clone := s.Clone()
	clone.Find(`[aria-hidden="true"]`).Remove()
	if hasText(clone.Text()) {
		return true
	}
	named := false
	clone.Find("img[alt], svg[aria-label], [role=img][aria-label]").EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if hasText(c.AttrOr("alt", "")) || hasText(c.AttrOr("aria-label", "")) {
			named = true
			return false
		}
		return true
	})
	return named
}

func isPresentational(s *goquery.Selection) bool {
	r := strings.ToLower(s.AttrOr("role", ""))
	return r == "presentation" || r == "none"
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if s.AttrOr("aria-hidden", "") == "true" {
		return true
	}
	return s.ParentsFiltered(`[hidden], [aria-hidden="true"]`).Length() > 0
}

func resolveRef(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func cssEscapeAttr(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
