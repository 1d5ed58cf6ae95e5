// Package webclient is the outbound HTTP layer used to fetch pages without a
// browser and to talk to the HTML conformance validator.
package webclient

import (
	"context"
	"net/http"
	"time"
)

// WebClient executes a single request.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// Config holds outbound client settings.
type Config struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// DefaultConfig mirrors the navigation bound used by the browser extractor.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		UserAgent:    "qadetector/1.0 (+https://github.com/raysh454/qadetector)",
		MaxBodyBytes: 10 << 20,
	}
}
