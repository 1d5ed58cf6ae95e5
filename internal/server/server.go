package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/qadetector/internal/app"
	"github.com/raysh454/qadetector/internal/auth"
	_ "github.com/raysh454/qadetector/internal/docs" // registers the swagger doc
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/registry"
	"github.com/raysh454/qadetector/internal/widget"
)

// maxScanBody bounds a submitted page bundle.
const maxScanBody = 20 << 20

// Server is the HTTP + WebSocket API surface: the public widget endpoints
// and the member-only dashboard API.
type Server struct {
	cfg      app.ServerConfig
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
	origins  map[string]bool
}

// NewServer builds the router over an already constructed Application.
func NewServer(a *app.Application) (*Server, error) {
	if a == nil || a.Config == nil {
		return nil, errors.New("application is nil")
	}
	if a.Registry == nil || a.History == nil || a.Scanner == nil || a.Orchestrator == nil || a.Auth == nil {
		return nil, errors.New("application is not fully wired")
	}
	logger := a.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	s := &Server{
		cfg:     a.Config.Server,
		app:     a,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Component("server")),
		origins: make(map[string]bool, len(a.Config.Server.AllowedOrigins)),
	}
	for _, o := range a.Config.Server.AllowedOrigins {
		s.origins[strings.TrimRight(o, "/")] = true
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.sameSiteOrigin}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/scan", s.optionsHandler("POST"))
	r.Options("/api/verify-token", s.optionsHandler("POST"))
	r.Options("/api/widget/should-scan", s.optionsHandler("POST"))
	r.Options("/api/check-auth", s.credentialedOptions("GET"))

	// Widget endpoints, callable from any origin
	r.Get(widget.ScriptPath, s.handleWidgetScript)
	r.Post("/api/scan", s.handleScan)
	r.Post("/api/verify-token", s.handleVerifyToken)
	r.Post("/api/widget/should-scan", s.handleShouldScan)
	r.Get("/api/check-auth", s.handleCheckAuth)

	r.Get("/healthz", s.handleHealth)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Dashboard, members only
	r.Group(func(r chi.Router) {
		r.Use(s.app.Auth.Middleware(s.authError))

		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{projectID}", s.handleGetProject)
		r.Delete("/projects/{projectID}", s.handleDeleteProject)
		r.Put("/projects/{projectID}/settings", s.handleUpdateSettings)
		r.Post("/projects/{projectID}/token", s.handleEnsureToken)

		r.Get("/projects/{projectID}/scans", s.handleListScans)
		r.Post("/projects/{projectID}/scans", s.handleStartScanJob)
		r.Get("/scans/{scanID}", s.handleGetScan)

		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Delete("/jobs/{jobID}", s.handleCancelJob)

		// WebSocket for job progress
		r.Get("/ws/projects/{projectID}/scan", s.handleScanWS)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// allowCredentials replaces the wildcard origin with the caller's origin
// when it is configured, so cookies may accompany the request. Other
// origins keep the wildcard, which browsers refuse for credentialed calls.
func (s *Server) allowCredentials(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimRight(r.Header.Get("Origin"), "/")
	w.Header().Add("Vary", "Origin")
	if origin == "" || !s.origins[origin] {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
}

func (s *Server) credentialedOptions(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.allowCredentials(w, r)
		s.optionsHandler(methods)(w, r)
	}
}

// sameSiteOrigin admits websocket upgrades from no origin, the request's
// own host or a configured origin.
func (s *Server) sameSiteOrigin(r *http.Request) bool {
	origin := strings.TrimRight(r.Header.Get("Origin"), "/")
	if origin == "" || s.origins[origin] {
		return true
	}
	return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "bytes", Value: r.ContentLength})
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidURL),
		errors.Is(err, model.ErrInvalidContent),
		errors.Is(err, registry.ErrInvalidProject):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidToken),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrDomainMismatch),
		errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNavigationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrBrowserLaunch),
		errors.Is(err, model.ErrNavigation):
		return http.StatusBadGateway
	case errors.Is(err, app.ErrOrchestratorClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error(msg, logging.Err(err))
	} else {
		s.logger.Warn(msg, logging.Err(err))
	}
	writeError(w, status, err.Error())
}

func (s *Server) authError(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, statusFor(err), err.Error())
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidJSON
	}
	return nil
}

var errInvalidJSON = errors.New("invalid JSON")

// handleHealth godoc
// @Summary Liveness and database check
// @Tags system
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.app.DB != nil {
		if err := s.app.DB.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
