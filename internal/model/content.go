package model

// ContentSource records which extractor produced a bundle.
type ContentSource string

const (
	SourceBrowser ContentSource = "browser"
	SourceHTTP    ContentSource = "http"
	SourceClient  ContentSource = "client"
)

// Image is an <img> as seen by the page.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Link is an <a href> as seen by the page.
type Link struct {
	Href  string `json:"href"`
	Text  string `json:"text"`
	Title string `json:"title"`
}

// Content is the bundle every check consumes. It is treated as read-only once
// extraction finishes, so checks may share it concurrently.
type Content struct {
	URL    string        `json:"url"`
	Title  string        `json:"title,omitempty"`
	HTML   string        `json:"html"`
	Text   string        `json:"text"`
	Images []Image       `json:"images,omitempty"`
	Links  []Link        `json:"links,omitempty"`
	Source ContentSource `json:"source"`
}
