package langfusetest

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jdziat/langfuse-annotator/pkg/ingestion"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// TestPublicKey is the public key the fake server accepts by default.
const TestPublicKey = "pk-lf-test-key"

// TestSecretKey is the secret key the fake server accepts by default.
const TestSecretKey = "sk-lf-test-key"

// RecordedRequest is an HTTP request received by the fake server.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Body          []byte
	Authorization string
	RequestID     string
}

// Server is an in-memory fake of the Langfuse public API.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	publicKey string
	secretKey string
	queues    []types.AnnotationQueue
	items     map[string][]types.QueueItem
	sessions  map[string]types.Session
	traces    map[string]types.Trace
	configs   map[string]types.ScoreConfig
	scores    []types.ScoreSubmission
	events    []ingestion.Event
	requests  []RecordedRequest
	failWhen  func(r *http.Request) int
	rejectFn  func(s types.ScoreSubmission) string
	now       func() time.Time
}

// NewServer starts a fake server accepting TestPublicKey/TestSecretKey.
func NewServer() *Server {
	s := &Server{
		publicKey: TestPublicKey,
		secretKey: TestSecretKey,
		items:     make(map[string][]types.QueueItem),
		sessions:  make(map[string]types.Session),
		traces:    make(map[string]types.Trace),
		configs:   make(map[string]types.ScoreConfig),
		now:       time.Now,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.inject)

	r.Route("/api/public", func(r chi.Router) {
		r.Post("/ingestion", s.authenticated(true, s.handleIngestion))

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return s.authenticated(false, next.ServeHTTP)
			})
			r.Get("/annotation-queues", s.handleListQueues)
			r.Get("/annotation-queues/{queueID}", s.handleGetQueue)
			r.Get("/annotation-queues/{queueID}/items", s.handleListItems)
			r.Get("/annotation-queues/{queueID}/items/{itemID}", s.handleGetItem)
			r.Patch("/annotation-queues/{queueID}/items/{itemID}", s.handlePatchItem)
			r.Get("/sessions/{sessionID}", s.handleGetSession)
			r.Get("/traces/{traceID}", s.handleGetTrace)
			r.Get("/score-configs", s.handleListConfigs)
			r.Get("/score-configs/{configID}", s.handleGetConfig)
		})
	})
	return r
}

// ============================================================================
// Fixtures
// ============================================================================

// SetCredentials changes the accepted key pair.
func (s *Server) SetCredentials(publicKey, secretKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicKey, s.secretKey = publicKey, secretKey
}

// AddQueue registers an annotation queue.
func (s *Server) AddQueue(q types.AnnotationQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues = append(s.queues, q)
}

// AddItem appends an item to its queue. Empty status means PENDING.
func (s *Server) AddItem(item types.QueueItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.Status == "" {
		item.Status = types.QueueItemStatusPending
	}
	s.items[item.QueueID] = append(s.items[item.QueueID], item)
}

// AddSession registers a session with its traces.
func (s *Server) AddSession(session types.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// AddTrace registers a trace.
func (s *Server) AddTrace(trace types.Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[trace.ID] = trace
}

// AddScoreConfig registers a score config.
func (s *Server) AddScoreConfig(config types.ScoreConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.ID] = config
}

// FailWhen makes every request for which fn returns a non-zero status fail
// with that status. Pass nil to clear.
func (s *Server) FailWhen(fn func(r *http.Request) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWhen = fn
}

// FailPath fails requests with the given method whose path has the suffix.
func (s *Server) FailPath(method, pathSuffix string, status int) {
	s.FailWhen(func(r *http.Request) int {
		if r.Method == method && strings.HasSuffix(r.URL.Path, pathSuffix) {
			return status
		}
		return 0
	})
}

// RejectScores makes ingestion reject scores for which fn returns a message.
func (s *Server) RejectScores(fn func(types.ScoreSubmission) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectFn = fn
}

// ============================================================================
// Inspection
// ============================================================================

// Item returns the current state of a queue item.
func (s *Server) Item(queueID, itemID string) (types.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items[queueID] {
		if item.ID == itemID {
			return item, true
		}
	}
	return types.QueueItem{}, false
}

// Scores returns every score accepted by ingestion.
func (s *Server) Scores() []types.ScoreSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ScoreSubmission(nil), s.scores...)
}

// Events returns every accepted ingestion event.
func (s *Server) Events() []ingestion.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingestion.Event(nil), s.events...)
}

// Requests returns all recorded requests.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequestCount returns the number of requests matching method and path
// suffix. Empty arguments match everything.
func (s *Server) RequestCount(method, pathSuffix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if (method == "" || r.Method == method) && strings.HasSuffix(r.Path, pathSuffix) {
			n++
		}
	}
	return n
}

// Reset clears recorded requests and ingested scores.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.scores = nil
	s.events = nil
}

// ============================================================================
// Middleware
// ============================================================================

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Body:          body,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fn := s.failWhen
		s.mu.Unlock()
		if fn != nil {
			if status := fn(r); status != 0 {
				writeError(w, status, "injected failure")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated checks Basic credentials. Ingestion accepts the public key alone.
func (s *Server) authenticated(publicOnly bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		s.mu.Lock()
		pk, sk := s.publicKey, s.secretKey
		s.mu.Unlock()

		if !ok || user == "" || user != pk || (!publicOnly && pass != sk) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials. Confirm that you've configured the correct host.")
			return
		}
		next(w, r)
	}
}

// ============================================================================
// Handlers
// ============================================================================

type meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// paginate slices data by the page and limit query parameters.
func paginate[T any](r *http.Request, data []T) ([]T, meta) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	m := meta{Page: page, Limit: limit, TotalItems: len(data), TotalPages: (len(data) + limit - 1) / limit}
	start := min((page-1)*limit, len(data))
	end := min(start+limit, len(data))
	return append([]T{}, data[start:end]...), m
}

func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, m := paginate(r, s.queues)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": m})
}

func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "queueID")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		if q.ID == id {
			writeJSON(w, http.StatusOK, q)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Annotation queue not found")
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	queueID := chi.URLParam(r, "queueID")
	status := types.QueueItemStatus(r.URL.Query().Get("status"))

	s.mu.Lock()
	var filtered []types.QueueItem
	for _, item := range s.items[queueID] {
		if status == "" || item.Status == status {
			filtered = append(filtered, item)
		}
	}
	data, m := paginate(r, filtered)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": m})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Item(chi.URLParam(r, "queueID"), chi.URLParam(r, "itemID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Annotation queue item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	queueID, itemID := chi.URLParam(r, "queueID"), chi.URLParam(r, "itemID")

	var body struct {
		Status types.QueueItemStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.IsValid() {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.items[queueID]
	for i := range items {
		if items[i].ID != itemID {
			continue
		}
		items[i].Status = body.Status
		items[i].UpdatedAt = types.Time{Time: s.now()}
		if body.Status == types.QueueItemStatusCompleted {
			items[i].CompletedAt = types.TimePtr(s.now())
		} else {
			items[i].CompletedAt = nil
		}
		writeJSON(w, http.StatusOK, items[i])
		return
	}
	writeError(w, http.StatusNotFound, "Annotation queue item not found")
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	session, ok := s.sessions[chi.URLParam(r, "sessionID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	trace, ok := s.traces[chi.URLParam(r, "traceID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Trace not found")
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	all := make([]types.ScoreConfig, 0, len(s.configs))
	for _, c := range s.configs {
		all = append(all, c)
	}
	s.mu.Unlock()
	data, m := paginate(r, all)
	writeJSON(w, http.StatusOK, map[string]any{"data": data, "meta": m})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	config, ok := s.configs[chi.URLParam(r, "configID")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Score config not found")
		return
	}
	writeJSON(w, http.StatusOK, config)
}

func (s *Server) handleIngestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Batch []struct {
			ID        string          `json:"id"`
			Type      string          `json:"type"`
			Timestamp types.Time      `json:"timestamp"`
			Body      json.RawMessage `json:"body"`
		} `json:"batch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := ingestion.Result{Successes: []ingestion.Success{}, Errors: []ingestion.Failure{}}
	for _, e := range req.Batch {
		var score types.ScoreSubmission
		if e.Type != ingestion.EventTypeScoreCreate || json.Unmarshal(e.Body, &score) != nil {
			result.Errors = append(result.Errors, ingestion.Failure{ID: e.ID, Status: http.StatusBadRequest, Message: "unsupported event"})
			continue
		}
		if s.rejectFn != nil {
			if msg := s.rejectFn(score); msg != "" {
				result.Errors = append(result.Errors, ingestion.Failure{ID: e.ID, Status: http.StatusBadRequest, Message: msg})
				continue
			}
		}
		s.scores = append(s.scores, score)
		s.events = append(s.events, ingestion.Event{ID: e.ID, Type: e.Type, Timestamp: e.Timestamp, Body: score})
		result.Successes = append(result.Successes, ingestion.Success{ID: e.ID, Status: http.StatusCreated})
	}
	writeJSON(w, http.StatusMultiStatus, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message, "error": http.StatusText(status)})
}

// BasicAuth returns the Authorization header value for a key pair.
func BasicAuth(publicKey, secretKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(publicKey+":"+secretKey))
}
