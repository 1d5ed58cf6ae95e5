// Package auth reads the identity forwarded by the external provider and
// restricts dashboard access to organization members.
//
// Sessions are owned by the provider (or the proxy in front of this
// service); requests arrive with the authenticated email in a header.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("email not allowed")
)

type Config struct {
	// EmailSuffix, e.g. "@corp.example". Empty allows any authenticated user.
	EmailSuffix string `mapstructure:"email_suffix"`
	EmailHeader string `mapstructure:"email_header"`
	NameHeader  string `mapstructure:"name_header"`
	UserHeader  string `mapstructure:"user_header"`
}

func DefaultConfig() Config {
	return Config{
		EmailHeader: "X-Forwarded-Email",
		NameHeader:  "X-Forwarded-Preferred-Username",
		UserHeader:  "X-Forwarded-User",
	}
}

// Principal is the authenticated viewer.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Authenticator resolves and authorizes principals.
type Authenticator struct {
	cfg Config
}

func New(cfg Config) *Authenticator {
	def := DefaultConfig()
	if cfg.EmailHeader == "" {
		cfg.EmailHeader = def.EmailHeader
	}
	if cfg.NameHeader == "" {
		cfg.NameHeader = def.NameHeader
	}
	if cfg.UserHeader == "" {
		cfg.UserHeader = def.UserHeader
	}
	return &Authenticator{cfg: cfg}
}

// FromRequest returns the forwarded principal, or nil when the request is
// anonymous. The user id falls back to the email; the display name falls
// back to the email's local part.
func (a *Authenticator) FromRequest(r *http.Request) *Principal {
	email := strings.TrimSpace(r.Header.Get(a.cfg.EmailHeader))
	if email == "" || !strings.Contains(email, "@") {
		return nil
	}
	p := &Principal{
		UserID: strings.TrimSpace(r.Header.Get(a.cfg.UserHeader)),
		Email:  email,
		Name:   strings.TrimSpace(r.Header.Get(a.cfg.NameHeader)),
	}
	if p.UserID == "" {
		p.UserID = strings.ToLower(email)
	}
	if p.Name == "" {
		p.Name, _, _ = strings.Cut(email, "@")
	}
	return p
}

// Allowed reports whether email belongs to the organization.
func (a *Authenticator) Allowed(email string) bool {
	if email == "" {
		return false
	}
	if a.cfg.EmailSuffix == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), strings.ToLower(a.cfg.EmailSuffix))
}

// Authorize returns the principal for a dashboard request.
func (a *Authenticator) Authorize(r *http.Request) (*Principal, error) {
	p := a.FromRequest(r)
	if p == nil {
		return nil, ErrUnauthenticated
	}
	if !a.Allowed(p.Email) {
		return nil, ErrForbidden
	}
	return p, nil
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal stored by Middleware.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// Middleware rejects requests without an allowed principal. onError writes
// the rejection so the caller controls the response format.
func (a *Authenticator) Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authorize(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
