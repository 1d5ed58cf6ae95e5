// Package guard decides whether a scan URL belongs to a project's domain.
// It runs before any browser work and has no side effects.
package guard

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/raysh454/qadetector/internal/model"
)

var profile = idna.New(idna.MapForLookup(), idna.Transitional(false))

// Check parses rawURL and accepts it iff its hostname equals domain or is a
// subdomain of it. Comparison is case-insensitive and IDN-aware.
func Check(rawURL, domain string) (*url.URL, error) {
	u, err := ParseScanURL(rawURL)
	if err != nil {
		return nil, err
	}
	d, err := NormalizeDomain(domain)
	if err != nil {
		return nil, fmt.Errorf("%w: project domain %q", model.ErrDomainMismatch, domain)
	}
	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidURL, err)
	}
	if !Matches(host, d) {
		return nil, fmt.Errorf("%w: %s is not %s or a subdomain of it", model.ErrDomainMismatch, host, d)
	}
	return u, nil
}

// Matches is the raw hostname rule over already-normalized values.
func Matches(host, domain string) bool {
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ParseScanURL requires an absolute http(s) URL with a host.
func ParseScanURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty", model.ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", model.ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", model.ErrInvalidURL)
	}
	return u, nil
}

// NormalizeDomain turns user input such as "https://Example.com/" or
// "example.com:8080" into the bare lower-case ASCII hostname.
func NormalizeDomain(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", fmt.Errorf("empty domain")
	}
	if strings.Contains(d, "://") {
		u, err := url.Parse(d)
		if err != nil {
			return "", err
		}
		d = u.Hostname()
	} else {
		if i := strings.IndexAny(d, "/?#"); i >= 0 {
			d = d[:i]
		}
		if h, _, ok := strings.Cut(d, ":"); ok {
			d = h
		}
	}
	return normalizeHost(d)
}

func normalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", fmt.Errorf("empty host")
	}
	ascii, err := profile.ToASCII(host)
	if err != nil {
		return "", err
	}
	return ascii, nil
}
