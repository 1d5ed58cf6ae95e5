package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()
	a := New(Config{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, a.FromRequest(r))

	r.Header.Set("X-Forwarded-Email", "not-an-email")
	assert.Nil(t, a.FromRequest(r))

	r.Header.Set("X-Forwarded-Email", "Jane.Doe@Corp.Example")
	p := a.FromRequest(r)
	require.NotNil(t, p)
	assert.Equal(t, "jane.doe@corp.example", p.UserID)
	assert.Equal(t, "Jane.Doe", p.Name)

	r.Header.Set("X-Forwarded-User", "u-42")
	r.Header.Set("X-Forwarded-Preferred-Username", "Jane")
	p = a.FromRequest(r)
	assert.Equal(t, "u-42", p.UserID)
	assert.Equal(t, "Jane", p.Name)
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	a := New(Config{EmailSuffix: "@corp.example"})
	assert.True(t, a.Allowed("qa@corp.example"))
	assert.True(t, a.Allowed("QA@CORP.EXAMPLE"))
	assert.False(t, a.Allowed("qa@corp.example.evil.com"))
	assert.False(t, a.Allowed("qa@othercorp.example.org"))
	assert.False(t, a.Allowed(""))

	assert.True(t, New(Config{}).Allowed("anyone@anywhere.test"))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	a := New(Config{EmailSuffix: "@corp.example", EmailHeader: "X-Email"})
	var gotErr error
	h := a.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(p.Email))
	}))

	tests := []struct {
		name    string
		email   string
		code    int
		wantErr error
	}{
		{"anonymous", "", http.StatusUnauthorized, ErrUnauthenticated},
		{"outsider", "x@gmail.com", http.StatusUnauthorized, ErrForbidden},
		{"member", "qa@corp.example", http.StatusOK, nil},
	}
	for _, tt := range tests {
		gotErr = nil
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		if tt.email != "" {
			req.Header.Set("X-Email", tt.email)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.code, rec.Code, tt.name)
		assert.Equal(t, tt.wantErr, gotErr, tt.name)
		if tt.code == http.StatusOK {
			assert.Equal(t, tt.email, rec.Body.String())
		}
	}
}

func TestPrincipalFrom_Empty(t *testing.T) {
	t.Parallel()
	_, ok := PrincipalFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
