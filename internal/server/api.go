package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/raysh454/qadetector/internal/checks"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/widget"
)

// handleWidgetScript serves the embeddable script.
func (s *Server) handleWidgetScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(widget.Script())
}

// handleScan godoc
// @Summary Scan a page
// @Description Runs the enabled checks against a page of the token's project. Without html the page is loaded server-side.
// @Tags widget
// @Accept json
// @Produce json
// @Param request body ScanRequest true "Token, URL and optional page bundle"
// @Success 200 {object} ScanResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /api/scan [post]
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBody)

	var body ScanRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := model.ScanRequest{
		Token:       body.Token,
		URL:         body.URL,
		TriggeredBy: body.TriggeredBy,
	}
	if body.submitted() {
		req.Content = &model.Content{
			Title:  body.Title,
			HTML:   body.HTML,
			Text:   body.Text,
			Images: body.Images,
			Links:  body.Links,
		}
		if req.TriggeredBy == "" {
			req.TriggeredBy = model.TriggerWidget
		}
	}
	if p := s.app.Auth.FromRequest(r); p != nil {
		req.UserEmail = p.Email
	}

	res, err := s.app.Scanner.Scan(r.Context(), req)
	if err != nil {
		s.fail(w, "scan failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newScanResponse(res))
}

// newScanResponse flattens a pipeline result into the widget's shape.
func newScanResponse(res *model.ScanResult) ScanResponse {
	sc := res.Scan
	out := ScanResponse{
		URL:          sc.PageURL,
		Timestamp:    sc.CompletedAt,
		OverallScore: sc.OverallScore,
		Accessibility: AccessibilityReport{
			Issues: []model.Issue{},
			Score:  sc.AccessibilityScore,
		},
		Spelling: SpellingReport{
			Errors: []SpellingError{},
			Score:  sc.SpellingScore,
		},
		HTML: HTMLReport{
			Errors:   []HTMLMessage{},
			Warnings: []HTMLMessage{},
			Score:    sc.HTMLValidationScore,
		},
	}
	if res.Persist == nil {
		id := sc.ID
		out.ScanID = &id
	}

	if r, ok := res.Checks[model.CheckAccessibility]; ok && r != nil {
		out.Accessibility.Issues = append(out.Accessibility.Issues, r.Issues...)
	}
	if r, ok := res.Checks[model.CheckSpelling]; ok && r != nil {
		for _, is := range r.Issues {
			out.Spelling.Errors = append(out.Spelling.Errors, SpellingError{
				Word:        metaString(is.Metadata, "word"),
				Suggestions: metaStrings(is.Metadata, "suggestions"),
				Context:     metaString(is.Metadata, "context"),
			})
		}
	}
	if r, ok := res.Checks[model.CheckHTMLValidation]; ok && r != nil {
		for _, is := range r.Issues {
			msg := HTMLMessage{
				Message: is.Description,
				Extract: metaString(is.Metadata, "extract"),
				Line:    metaInt(is.Metadata, "line"),
				Column:  metaInt(is.Metadata, "column"),
			}
			switch is.Kind {
			case model.IssueHTMLError:
				msg.Type = string(checks.MessageError)
				out.HTML.Errors = append(out.HTML.Errors, msg)
			case model.IssueHTMLWarning:
				msg.Type = string(checks.MessageWarning)
				out.HTML.Warnings = append(out.HTML.Warnings, msg)
			}
		}
	}
	return out
}

func metaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func metaStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

func metaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// handleVerifyToken godoc
// @Summary Verify an embed token
// @Tags widget
// @Accept json
// @Produce json
// @Param request body VerifyTokenRequest true "Token"
// @Success 200 {object} VerifyTokenResponse
// @Failure 401 {object} VerifyTokenResponse
// @Router /api/verify-token [post]
func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	var body VerifyTokenRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.app.Registry.ProjectByToken(r.Context(), body.Token)
	if errors.Is(err, model.ErrInvalidToken) {
		writeJSON(w, http.StatusUnauthorized, VerifyTokenResponse{Valid: false})
		return
	}
	if err != nil {
		s.fail(w, "verifying token", err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyTokenResponse{Valid: true, ProjectID: p.ID})
}

// handleCheckAuth godoc
// @Summary Report the viewer's identity
// @Description Credentialed requests are honoured only from configured origins.
// @Tags widget
// @Produce json
// @Success 200 {object} CheckAuthResponse
// @Router /api/check-auth [get]
func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	s.allowCredentials(w, r)
	p := s.app.Auth.FromRequest(r)
	if p == nil {
		writeJSON(w, http.StatusOK, CheckAuthResponse{})
		return
	}
	writeJSON(w, http.StatusOK, CheckAuthResponse{
		Authenticated: true,
		Email:         p.Email,
		Name:          p.Name,
		Member:        s.app.Auth.Allowed(p.Email),
	})
}

// handleShouldScan godoc
// @Summary Decide whether an anonymous page view triggers a scan
// @Tags widget
// @Accept json
// @Produce json
// @Param request body ShouldScanRequest true "Stored session and current URL"
// @Success 200 {object} ShouldScanResponse
// @Router /api/widget/should-scan [post]
func (s *Server) handleShouldScan(w http.ResponseWriter, r *http.Request) {
	var body ShouldScanRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var state *widget.SessionState
	if body.LastScan > 0 {
		state = &widget.SessionState{LastScan: time.UnixMilli(body.LastScan), PageURL: body.PageURL}
	}
	should := widget.ShouldAutoScan(state, body.URL, time.Now())
	s.logger.Debug("auto-scan decision",
		logging.Field{Key: "url", Value: body.URL},
		logging.Field{Key: "should_scan", Value: should})
	writeJSON(w, http.StatusOK, ShouldScanResponse{ShouldScan: should})
}
