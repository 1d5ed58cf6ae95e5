package extractor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/qadetector/internal/model"
)

// nonRendered elements never contribute to visible text.
const nonRendered = "script, style, noscript, template, head, [hidden], [aria-hidden=true]"

// ParseHTML parses a document with goquery.
func ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// VisibleText approximates innerText of <body>: non-rendered subtrees are
// dropped and whitespace runs collapse to single spaces.
func VisibleText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	clone := body.Clone()
	clone.Find(nonRendered).Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}

// Title returns the trimmed document title.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Images lists every <img>, resolving src against base when given.
func Images(doc *goquery.Document, base *url.URL) []model.Image {
	out := []model.Image{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		out = append(out, model.Image{
			Src:    resolve(base, src),
			Alt:    alt,
			Width:  atoi(s.AttrOr("width", "")),
			Height: atoi(s.AttrOr("height", "")),
		})
	})
	return out
}

// Links lists every <a href>, resolving href against base when given.
func Links(doc *goquery.Document, base *url.URL) []model.Link {
	out := []model.Link{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		out = append(out, model.Link{
			Href:  resolve(base, href),
			Text:  strings.TrimSpace(s.Text()),
			Title: s.AttrOr("title", ""),
		})
	})
	return out
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// bundleFromHTML derives the full bundle from markup alone.
func bundleFromHTML(pageURL, html string, source model.ContentSource) (*model.Content, error) {
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)
	return &model.Content{
		URL:    pageURL,
		Title:  Title(doc),
		HTML:   html,
		Text:   VisibleText(doc),
		Images: Images(doc, base),
		Links:  Links(doc, base),
		Source: source,
	}, nil
}
