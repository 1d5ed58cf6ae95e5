package webclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/webclient"
)

// ─── Do: real HTTP round-trip via httptest ──────────────────────────────

func TestNetHTTPClient_Do_GET_ReturnsBody(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Custom", "hello")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "response body")
	}))
	defer ts.Close()

	client, err := webclient.NewNetHTTPClient(webclient.DefaultConfig(), logging.Nop{}, ts.Client())
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer client.Close()

	resp, err := client.Get(context.Background(), ts.URL+"/test")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "response body" {
		t.Errorf("expected 'response body', got %q", resp.Body)
	}
	if resp.Headers.Get("X-Custom") != "hello" {
		t.Errorf("expected X-Custom header 'hello', got %q", resp.Headers.Get("X-Custom"))
	}
}

func TestNetHTTPClient_Do_POST_SendsBodyAndHeaders(t *testing.T) {
	t.Parallel()
	var gotBody, gotMethod, gotType, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	cfg := webclient.DefaultConfig()
	cfg.UserAgent = "qa-test"
	client, _ := webclient.NewNetHTTPClient(cfg, logging.Nop{}, ts.Client())
	defer client.Close()

	hdrs := http.Header{}
	hdrs.Set("Content-Type", "text/html; charset=utf-8")
	resp, err := client.Do(context.Background(), &webclient.Request{
		Method:  "post",
		URL:     ts.URL,
		Headers: hdrs,
		Body:    []byte("<p>x</p>"),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != "POST" || gotBody != "<p>x</p>" {
		t.Errorf("server saw %s %q", gotMethod, gotBody)
	}
	if gotType != "text/html; charset=utf-8" {
		t.Errorf("content type not forwarded: %q", gotType)
	}
	if gotUA != "qa-test" {
		t.Errorf("user agent = %q", gotUA)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestNetHTTPClient_Do_TruncatesLargeBodies(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "0123456789")
	}))
	defer ts.Close()

	cfg := webclient.DefaultConfig()
	cfg.MaxBodyBytes = 4
	client, _ := webclient.NewNetHTTPClient(cfg, logging.Nop{}, ts.Client())
	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "0123" {
		t.Errorf("expected truncated body, got %q", resp.Body)
	}
}

func TestNetHTTPClient_Do_NilRequest_ReturnsError(t *testing.T) {
	t.Parallel()
	client, _ := webclient.NewNetHTTPClient(webclient.Config{}, nil, nil)
	defer client.Close()

	_, err := client.Do(context.Background(), nil)
	if !errors.Is(err, webclient.ErrNilRequest) {
		t.Fatalf("expected ErrNilRequest, got %v", err)
	}
}

func TestNetHTTPClient_Do_ContextCanceled_ReturnsError(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	client, _ := webclient.NewNetHTTPClient(webclient.DefaultConfig(), logging.Nop{}, ts.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Get(ctx, ts.URL); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
