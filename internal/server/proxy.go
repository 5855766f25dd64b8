package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
	"github.com/jdziat/langfuse-annotator/pkg/api/annotationqueues"
	"github.com/jdziat/langfuse-annotator/pkg/api/scoreconfigs"
	"github.com/jdziat/langfuse-annotator/pkg/api/sessions"
	"github.com/jdziat/langfuse-annotator/pkg/api/traces"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// maxPatchBody bounds forwarded PATCH bodies.
const maxPatchBody = 1 << 20

// Proxy routes answer every upstream failure with a generic 500 and log
// the cause, so upstream details never reach the browser.

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	summaries, err := annotation.ListQueueSummaries(r.Context(), s.backend, s.logger)
	if err != nil {
		s.logUpstreamError("Error fetching queues", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch queues")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")
	summary, err := annotation.QueueSummary(r.Context(), s.backend, queueID)
	if err != nil {
		s.logUpstreamError("Error fetching queue", err, "queue_id", queueID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch queue")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")
	status := types.QueueItemStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	items, err := s.backend.ListItems(r.Context(), queueID, status)
	if err != nil {
		s.logUpstreamError("Error fetching queue items", err, "queue_id", queueID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch queue items")
		return
	}
	if items == nil {
		items = []types.QueueItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	path := pkghttp.JoinPath(annotationqueues.Endpoint, chi.URLParam(r, "queueID"), "items", chi.URLParam(r, "itemID"))
	s.forwardGet(w, r, path, "Failed to fetch queue item")
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	path := pkghttp.JoinPath(annotationqueues.Endpoint, chi.URLParam(r, "queueID"), "items", chi.URLParam(r, "itemID"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBody))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	resp, err := s.upstream.PatchRaw(r.Context(), path, body)
	if err != nil {
		s.logUpstreamError("Error updating queue item", err, "path", path)
		writeError(w, http.StatusInternalServerError, "Failed to update queue item")
		return
	}
	writeRawJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.forwardGet(w, r, pkghttp.JoinPath(sessions.Endpoint, chi.URLParam(r, "sessionID")), "Failed to fetch session")
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	s.forwardGet(w, r, pkghttp.JoinPath(traces.Endpoint, chi.URLParam(r, "traceID")), "Failed to fetch trace")
}

func (s *Server) handleGetScoreConfig(w http.ResponseWriter, r *http.Request) {
	s.forwardGet(w, r, pkghttp.JoinPath(scoreconfigs.Endpoint, chi.URLParam(r, "configID")), "Failed to fetch score config")
}

// forwardGet relays the upstream JSON for path unchanged.
func (s *Server) forwardGet(w http.ResponseWriter, r *http.Request, path, failure string) {
	resp, err := s.upstream.GetRaw(r.Context(), path, nil)
	if err != nil {
		s.logUpstreamError("upstream request failed", err, "path", path)
		writeError(w, http.StatusInternalServerError, failure)
		return
	}
	writeRawJSON(w, http.StatusOK, resp)
}
