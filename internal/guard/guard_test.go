package guard_test

import (
	"errors"
	"testing"

	"github.com/raysh454/qadetector/internal/guard"
	"github.com/raysh454/qadetector/internal/model"
)

func TestCheck_Table(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		url     string
		domain  string
		wantErr error
	}{
		{"exact host", "https://example.com/a", "example.com", nil},
		{"subdomain", "https://blog.example.com/", "example.com", nil},
		{"deep subdomain", "http://a.b.example.com/x?y=1", "example.com", nil},
		{"case insensitive", "https://WWW.Example.COM/", "example.com", nil},
		{"port ignored", "https://example.com:8443/", "example.com", nil},
		{"suffix without dot", "https://evilexample.com/", "example.com", model.ErrDomainMismatch},
		{"domain as subdomain of attacker", "https://example.com.evil.io/", "example.com", model.ErrDomainMismatch},
		{"other host", "https://other.org/", "example.com", model.ErrDomainMismatch},
		{"garbage", "::not a url", "example.com", model.ErrInvalidURL},
		{"empty", "", "example.com", model.ErrInvalidURL},
		{"no scheme", "example.com/page", "example.com", model.ErrInvalidURL},
		{"ftp", "ftp://example.com/", "example.com", model.ErrInvalidURL},
		{"domain given with scheme", "https://shop.example.com/", "https://example.com/", nil},
		{"idn", "https://bücher.example/", "xn--bcher-kva.example", nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := guard.Check(tt.url, tt.domain)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected accept, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Example.com":              "example.com",
		"https://Example.com/path": "example.com",
		"example.com:8080":         "example.com",
		"example.com.":             "example.com",
		" example.com/ ":           "example.com",
	}
	for in, want := range cases {
		got, err := guard.NormalizeDomain(in)
		if err != nil {
			t.Errorf("NormalizeDomain(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := guard.NormalizeDomain("  "); err == nil {
		t.Error("expected error for blank domain")
	}
}

func TestMatches_EmptyNeverMatches(t *testing.T) {
	t.Parallel()
	if guard.Matches("", "") || guard.Matches("example.com", "") {
		t.Fatal("empty values must not match")
	}
}
