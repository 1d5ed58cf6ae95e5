package checks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input",
	"link", "meta", "param", "source", "track", "wbr")

// Elements whose end tag may be omitted.
var optionalEnd = set("html", "head", "body", "p", "li", "dt", "dd", "option",
	"optgroup", "tr", "td", "th", "thead", "tbody", "tfoot", "colgroup", "caption",
	"rt", "rp", "rb", "rtc")

var obsoleteElements = set("acronym", "applet", "basefont", "bgsound", "big", "blink",
	"center", "dir", "font", "frame", "frameset", "isindex", "keygen", "listing",
	"marquee", "menuitem", "multicol", "nextid", "nobr", "noembed", "noframes",
	"plaintext", "rb", "rtc", "spacer", "strike", "tt", "xmp")

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// LocalValidator is an offline structural validator built on the
// x/net/html tokenizer. It reports a subset of what the Nu checker reports:
// missing doctype, stray and unclosed tags, duplicate ids and attributes,
// obsolete elements, and a few common warnings.
type LocalValidator struct{}

func NewLocalValidator() *LocalValidator { return &LocalValidator{} }

func (LocalValidator) Name() string { return "local" }

type openElem struct {
	name string
	line int
}

type tokenScanner struct {
	msgs    []ValidationMessage
	stack   []openElem
	ids     map[string]int
	line    int
	foreign int // depth inside <svg>/<math>
}

func (s *tokenScanner) add(t MessageType, line int, extract, format string, args ...any) {
	if len(extract) > 80 {
		extract = extract[:80]
	}
	s.msgs = append(s.msgs, ValidationMessage{
		Type:    t,
		Message: fmt.Sprintf(format, args...),
		Extract: extract,
		Line:    line,
	})
}

func (v LocalValidator) Validate(ctx context.Context, doc string) ([]ValidationMessage, error) {
	z := html.NewTokenizer(strings.NewReader(doc))
	s := &tokenScanner{ids: map[string]int{}, line: 1}
	sawDoctype := false
	sawElement := false

	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		tt := z.Next()
		raw := string(z.Raw())
		line := s.line
		s.line += strings.Count(raw, "\n")

		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				s.finish()
				return s.msgs, nil
			}
			return nil, z.Err()

		case html.DoctypeToken:
			sawDoctype = true
			if !strings.EqualFold(strings.TrimSpace(string(z.Text())), "html") {
				s.add(MessageError, line, raw, "Bad value for doctype. Expected <!DOCTYPE html>.")
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			name := tok.Data
			if !sawElement {
				sawElement = true
				if !sawDoctype {
					s.add(MessageError, line, raw, "Start tag seen without seeing a doctype first. Expected <!DOCTYPE html>.")
				}
			}
			if s.foreign > 0 {
				if tt == html.StartTagToken && (name == "svg" || name == "math") {
					s.foreign++
				}
				continue
			}
			s.startTag(tok, tt == html.SelfClosingTagToken, line, raw)

		case html.EndTagToken:
			name := z.Token().Data
			if s.foreign > 0 {
				if name == "svg" || name == "math" {
					s.foreign--
				}
				continue
			}
			s.endTag(name, line, raw)
		}
	}
}

func (s *tokenScanner) startTag(tok html.Token, selfClosing bool, line int, raw string) {
	name := tok.Data

	seen := map[string]bool{}
	for _, a := range tok.Attr {
		key := strings.ToLower(a.Key)
		if seen[key] {
			s.add(MessageError, line, raw, "Duplicate attribute %s.", key)
		}
		seen[key] = true

		switch key {
		case "id":
			id := a.Val
			if id == "" {
				s.add(MessageError, line, raw, "Bad value \"\" for attribute id on element %s: An ID must not be the empty string.", name)
			} else if strings.ContainsAny(id, " \t\n\f\r") {
				s.add(MessageError, line, raw, "Bad value %q for attribute id on element %s: An ID must not contain whitespace.", id, name)
			} else {
				s.ids[id]++
				if s.ids[id] == 2 {
					s.add(MessageError, line, raw, "Duplicate ID %s.", id)
				}
			}
		case "type":
			if name == "script" && strings.EqualFold(strings.TrimSpace(a.Val), "text/javascript") {
				s.add(MessageWarning, line, raw, "The type attribute is unnecessary for JavaScript resources.")
			}
			if name == "style" && strings.EqualFold(strings.TrimSpace(a.Val), "text/css") {
				s.add(MessageWarning, line, raw, "The type attribute for the style element is not needed and should be omitted.")
			}
		}
	}

	if obsoleteElements[name] {
		s.add(MessageError, line, raw, "The %s element is obsolete.", name)
	}

	if name == "html" && !seen["lang"] {
		s.add(MessageWarning, line, raw, "Consider adding a lang attribute to the html start tag to declare the language of this document.")
	}
	if name == "img" && !seen["alt"] && !seen["role"] {
		s.add(MessageError, line, raw, "An img element must have an alt attribute, except under certain conditions.")
	}

	if name == "svg" || name == "math" {
		if !selfClosing {
			s.foreign++
		}
		return
	}

	if voidElements[name] {
		return
	}
	if selfClosing {
		s.add(MessageError, line, raw, "Self-closing syntax (/>) used on a non-void HTML element. Ignoring the slash and treating as a start tag.")
	}

	// An open <p> is implicitly closed by block-level content.
	if closesP[name] && s.top() == "p" {
		s.stack = s.stack[:len(s.stack)-1]
	}
	if (name == "li" && s.top() == "li") || ((name == "dt" || name == "dd") && (s.top() == "dt" || s.top() == "dd")) ||
		(name == "option" && s.top() == "option") || ((name == "td" || name == "th") && (s.top() == "td" || s.top() == "th")) ||
		(name == "tr" && s.top() == "tr") {
		s.stack = s.stack[:len(s.stack)-1]
	}
	s.stack = append(s.stack, openElem{name: name, line: line})
}

var closesP = set("address", "article", "aside", "blockquote", "details", "div", "dl",
	"fieldset", "figcaption", "figure", "footer", "form", "h1", "h2", "h3", "h4", "h5",
	"h6", "header", "hgroup", "hr", "main", "menu", "nav", "ol", "p", "pre", "section",
	"table", "ul")

func (s *tokenScanner) top() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1].name
}

func (s *tokenScanner) endTag(name string, line int, raw string) {
	if voidElements[name] {
		if name != "br" {
			s.add(MessageError, line, raw, "Stray end tag %s.", name)
		}
		return
	}
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].name != name {
			continue
		}
		for _, open := range s.stack[i+1:] {
			if !optionalEnd[open.name] {
				s.add(MessageError, line, raw, "End tag %s seen, but there were open elements (unclosed %s).", name, open.name)
			}
		}
		s.stack = s.stack[:i]
		return
	}
	if name == "p" {
		s.add(MessageError, line, raw, "No p element in scope but a p end tag seen.")
		return
	}
	if optionalEnd[name] {
		return
	}
	s.add(MessageError, line, raw, "Stray end tag %s.", name)
}

func (s *tokenScanner) finish() {
	for _, open := range s.stack {
		if !optionalEnd[open.name] {
			s.add(MessageError, open.line, "", "Unclosed element %s.", open.name)
		}
	}
	s.stack = nil
}
