package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
	"github.com/jdziat/langfuse-annotator/internal/metrics"
	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
)

// submitFailure is shown for any failure after validation.
const submitFailure = "Failed to submit scores. Please try again."

// SubmitRequest is the body of a score submission. Scores are keyed by
// score config id or name.
type SubmitRequest struct {
	Scores  map[string]float64 `json:"scores"`
	Comment string             `json:"comment,omitempty"`
}

func queueLocation(queueID, itemID string) string {
	return "/queue/" + url.PathEscape(queueID) + "?itemId=" + url.QueryEscape(itemID)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")
	loc := annotation.NewRequestLocation(r.URL.Query().Get("itemId"))
	ws := annotation.NewWorkspace(queueID, s.backend, loc, s.logger)
	if err := ws.Open(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
		return
	}

	view := ws.View()
	if view.Queue == nil {
		writeError(w, http.StatusNotFound, "Queue not found")
		return
	}
	if id := loc.Canonical(); id != "" {
		w.Header().Set("Content-Location", queueLocation(queueID, id))
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	queueID, itemID := chi.URLParam(r, "queueID"), chi.URLParam(r, "itemID")

	var req SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ws := annotation.NewWorkspace(queueID, s.backend, annotation.NewRequestLocation(itemID), s.logger)
	if err := ws.Load(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
		return
	}
	if view := ws.View(); view.Item == nil || view.Item.ID != itemID {
		writeError(w, http.StatusNotFound, "Queue item not found")
		return
	}

	for key, value := range req.Scores {
		cfg, ok := ws.Config(key)
		if !ok {
			s.metrics.ObserveSubmission(metrics.OutcomeInvalid)
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Unknown score %q", key))
			return
		}
		if !ws.Select(cfg.ID, value) {
			s.metrics.ObserveSubmission(metrics.OutcomeInvalid)
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Value %v is not allowed for %s", value, cfg.Name))
			return
		}
	}
	ws.SetComment(req.Comment)

	result, err := ws.Submit(r.Context())
	if err != nil {
		status, message, outcome := submitStatus(err)
		s.metrics.ObserveSubmission(outcome)
		if status >= http.StatusInternalServerError {
			s.logUpstreamError("Error submitting scores", err, "queue_id", queueID, "item_id", itemID)
		}
		writeError(w, status, message)
		return
	}
	s.metrics.ObserveSubmission(metrics.OutcomeSuccess)
	writeJSON(w, http.StatusOK, result)
}

// submitStatus maps a submission error to a response.
func submitStatus(err error) (int, string, string) {
	if ve, ok := pkgerrors.AsValidationError(err); ok {
		return http.StatusUnprocessableEntity, ve.Error(), metrics.OutcomeInvalid
	}
	switch {
	case errors.Is(err, annotation.ErrIncompleteScores):
		return http.StatusUnprocessableEntity, err.Error(), metrics.OutcomeIncomplete
	case errors.Is(err, annotation.ErrAlreadyCompleted):
		return http.StatusConflict, err.Error(), metrics.OutcomeCompleted
	}
	return http.StatusBadGateway, submitFailure, metrics.OutcomeFailed
}
