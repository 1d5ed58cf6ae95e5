package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/qadetector/internal/app"
	"github.com/raysh454/qadetector/internal/auth"
	"github.com/raysh454/qadetector/internal/logging"
	"github.com/raysh454/qadetector/internal/model"
	"github.com/raysh454/qadetector/internal/registry"
	"github.com/raysh454/qadetector/internal/widget"
)

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// ownedProject loads the project and hides it from anyone but its owner.
func (s *Server) ownedProject(ctx context.Context, p *auth.Principal, id string) (*model.Project, error) {
	project, err := s.app.Registry.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || project.UserID != p.UserID {
		return nil, registry.ErrProjectNotFound
	}
	return project, nil
}

func (s *Server) projectResponse(p *model.Project) ProjectResponse {
	resp := ProjectResponse{Project: p}
	if p.Token != "" {
		resp.ScriptTag = widget.ScriptTag(s.cfg.PublicURL, p.Token)
	}
	return resp
}

// Projects

// handleCreateProject godoc
// @Summary Register a project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Name and domain"
// @Success 201 {object} ProjectResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /projects [post]
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body CreateProjectRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.app.Registry.CreateProject(r.Context(), principal(r).UserID, body.Name, body.Domain)
	if err != nil {
		s.fail(w, "creating project", err)
		return
	}
	writeJSON(w, http.StatusCreated, s.projectResponse(p))
}

// handleListProjects godoc
// @Summary List the caller's projects
// @Tags projects
// @Produce json
// @Success 200 {array} model.Project
// @Router /projects [get]
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.app.Registry.ListProjects(r.Context(), principal(r).UserID)
	if err != nil {
		s.fail(w, "listing projects", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// handleGetProject godoc
// @Summary Get a project with its embed snippet
// @Tags projects
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} ProjectResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [get]
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedProject(r.Context(), principal(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "getting project", err)
		return
	}
	writeJSON(w, http.StatusOK, s.projectResponse(p))
}

// handleDeleteProject godoc
// @Summary Delete a project and its scans
// @Tags projects
// @Param projectID path string true "Project ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [delete]
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedProject(r.Context(), principal(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "deleting project", err)
		return
	}
	if err := s.app.Registry.DeleteProject(r.Context(), p.ID); err != nil {
		s.fail(w, "deleting project", err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleUpdateSettings godoc
// @Summary Toggle checks and notifications
// @Tags projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param request body model.Settings true "Settings"
// @Success 200 {object} model.Project
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID}/settings [put]
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedProject(r.Context(), principal(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "updating settings", err)
		return
	}
	var body model.Settings
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.app.Registry.UpdateSettings(r.Context(), p.ID, body)
	if err != nil {
		s.fail(w, "updating settings", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleEnsureToken godoc
// @Summary Return the project's embed token, issuing one if missing
// @Tags projects
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} TokenResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID}/token [post]
func (s *Server) handleEnsureToken(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedProject(r.Context(), principal(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "issuing token", err)
		return
	}
	token, err := s.app.Registry.EnsureToken(r.Context(), p.ID)
	if err != nil {
		s.fail(w, "issuing token", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ScriptTag: widget.ScriptTag(s.cfg.PublicURL, token)})
}

// Scans

// handleListScans godoc
// @Summary List a project's scans, newest first
// @Tags scans
// @Produce json
// @Param projectID path string true "Project ID"
// @Param limit query int false "Maximum number of scans"
// @Success 200 {array} model.Scan
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID}/scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	p, err := s.ownedProject(r.Context(), principal(r), chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "listing scans", err)
		return
	}
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	scans, err := s.app.History.ListScans(r.Context(), p.ID, limit)
	if err != nil {
		s.fail(w, "listing scans", err)
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleGetScan godoc
// @Summary Get a stored scan with its issues
// @Tags scans
// @Produce json
// @Param scanID path string true "Scan ID"
// @Success 200 {object} model.Scan
// @Failure 404 {object} ErrorResponse
// @Router /scans/{scanID} [get]
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	sc, err := s.app.History.GetScan(r.Context(), chi.URLParam(r, "scanID"))
	if err != nil {
		s.fail(w, "getting scan", err)
		return
	}
	if _, err := s.ownedProject(r.Context(), principal(r), sc.ProjectID); err != nil {
		s.fail(w, "getting scan", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// handleStartScanJob godoc
// @Summary Start a manual background scan
// @Tags scans
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param request body StartScanRequest true "Page URL"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID}/scans [post]
func (s *Server) handleStartScanJob(w http.ResponseWriter, r *http.Request) {
	pr := principal(r)
	p, err := s.ownedProject(r.Context(), pr, chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "starting scan job", err)
		return
	}
	var body StartScanRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.app.Orchestrator.StartScanJob(r.Context(), p.ID, body.URL, pr.Email)
	if err != nil {
		s.fail(w, "starting scan job", err)
		return
	}
	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusAccepted, job)
}

// Jobs

// visibleJob returns the job when it belongs to one of the caller's projects.
func (s *Server) visibleJob(r *http.Request, jobID string) *app.Job {
	job := s.app.Orchestrator.GetJob(jobID)
	if job == nil {
		return nil
	}
	if _, err := s.ownedProject(r.Context(), principal(r), job.ProjectID); err != nil {
		return nil
	}
	return job
}

// handleGetJob godoc
// @Summary Get a background job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.visibleJob(r, jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelJob godoc
// @Summary Cancel a background job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if s.visibleJob(r, jobID) == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.app.Orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleListJobs godoc
// @Summary List background jobs on the caller's projects
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	owned := map[string]bool{}
	out := []*app.Job{}
	for _, job := range s.app.Orchestrator.ListJobs() {
		ok, seen := owned[job.ProjectID]
		if !seen {
			_, err := s.ownedProject(r.Context(), principal(r), job.ProjectID)
			ok = err == nil
			owned[job.ProjectID] = ok
		}
		if ok {
			out = append(out, job)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// WebSockets

// handleScanWS starts a manual scan of ?url and streams its events until
// the job ends. A client that goes away cancels the job.
func (s *Server) handleScanWS(w http.ResponseWriter, r *http.Request) {
	pr := principal(r)
	p, err := s.ownedProject(r.Context(), pr, chi.URLParam(r, "projectID"))
	if err != nil {
		s.fail(w, "starting scan job", err)
		return
	}
	pageURL := r.URL.Query().Get("url")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	job, err := s.app.Orchestrator.StartScanJob(r.Context(), p.ID, pageURL, pr.Email)
	if err != nil {
		s.logger.Warn("starting scan job", logging.Err(err))
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started scan job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("client went away", logging.Field{Key: "job_id", Value: job.ID}, logging.Err(err))
			s.app.Orchestrator.CancelJob(job.ID)
			return
		}
	}
}
