package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"deep-research-agent/internal/domain"
	"deep-research-agent/internal/domain/model"
	"deep-research-agent/internal/infra/logging"

	"github.com/go-chi/chi/v5"
)

type createResearchRequest struct {
	Title  string               `json:"title"`
	Config model.ResearchConfig `json:"config"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. The raw diagnostic
// goes to the client: the UI shows it on the failed job.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownModel):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSubmissionFailed), errors.Is(err, domain.ErrPollFailed):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.cfg.APIKey == "" {
		s.log.Error().Msg("server API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !s.bearerOK(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		s.log.Error().Err(err).Msg("mint session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateResearch creates the job record and submits it in one call.
// On submission failure the job stays pending and the diagnostic is
// returned; a later retry re-submits.
func (s *Server) handleCreateResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	job, err := s.researchUC.Create(ctx, req.Title, req.Config)
	if err != nil {
		writeError(w, err)
		return
	}
	started, err := s.researchUC.Start(ctx, job.ID)
	if err != nil {
		writeJSON(w, statusFor(err), struct {
			Job   *model.ResearchJob `json:"job"`
			Error string             `json:"error"`
		}{Job: job, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownModel):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleListResearch(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.researchUC.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetResearch(w http.ResponseWriter, r *http.Request) {
	job, err := s.researchUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleRetryResearch(w http.ResponseWriter, r *http.Request) {
	job, err := s.researchUC.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleCancelResearch stops the active polling stream. The record keeps
// whatever status it had; cancellation never mutates it.
func (s *Server) handleCancelResearch(w http.ResponseWriter, r *http.Request) {
	cancelled := s.researchUC.Cancel(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, struct {
		Cancelled bool `json:"cancelled"`
	}{Cancelled: cancelled})
}

func (s *Server) handleDeleteResearch(w http.ResponseWriter, r *http.Request) {
	if err := s.researchUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var cfg model.ResearchConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	est, err := s.estimateUC.Estimate(r.Context(), &cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (s *Server) handleUpdateCredentials(w http.ResponseWriter, r *http.Request) {
	var creds model.BackendCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := s.settingsUC.UpdateCredentials(r.Context(), creds); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetCredentials returns the stored configuration with the key
// redacted; the UI only needs to show which provider is active.
func (s *Server) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.settingsUC.Credentials(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	creds.APIKey = logging.Redact(creds.APIKey, false)
	writeJSON(w, http.StatusOK, creds)
}
