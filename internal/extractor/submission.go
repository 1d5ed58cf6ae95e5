package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/raysh454/qadetector/internal/model"
)

// FromSubmission validates a widget-submitted bundle and fills in whatever the
// client left out from its markup. It performs no network I/O. The caller's
// bundle is not modified.
func FromSubmission(pageURL string, sub *model.Content) (*model.Content, error) {
	if sub == nil {
		return nil, fmt.Errorf("%w: missing content", model.ErrInvalidContent)
	}
	if strings.TrimSpace(sub.HTML) == "" {
		return nil, fmt.Errorf("%w: html is required", model.ErrInvalidContent)
	}
	for i, img := range sub.Images {
		if img.Width < 0 || img.Height < 0 {
			return nil, fmt.Errorf("%w: image %d has negative dimensions", model.ErrInvalidContent, i)
		}
	}

	out := &model.Content{
		URL:    pageURL,
		Title:  strings.TrimSpace(sub.Title),
		HTML:   sub.HTML,
		Text:   sub.Text,
		Images: append([]model.Image(nil), sub.Images...),
		Links:  append([]model.Link(nil), sub.Links...),
		Source: model.SourceClient,
	}

	if out.Text != "" && out.Images != nil && out.Links != nil && out.Title != "" {
		return out, nil
	}

	doc, err := ParseHTML(sub.HTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidContent, err)
	}
	base, _ := url.Parse(pageURL)
	if out.Text == "" {
		out.Text = VisibleText(doc)
	}
	if out.Title == "" {
		out.Title = Title(doc)
	}
	if out.Images == nil {
		out.Images = Images(doc, base)
	}
	if out.Links == nil {
		out.Links = Links(doc, base)
	}
	return out, nil
}
