package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// Ensure httpClient implements pkghttp.Doer at compile time.
var _ pkghttp.Doer = (*httpClient)(nil)

const (
	// maxResponseSize limits the size of HTTP response bodies to prevent OOM.
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	// maxRequestBodySize limits the size of HTTP request bodies.
	maxRequestBodySize = 10 * 1024 * 1024 // 10MB
)

// httpClient handles HTTP requests to the Langfuse API.
type httpClient struct {
	client         *http.Client
	baseURL        string
	authHeader     string
	userAgent      string
	retryStrategy  pkghttp.RetryStrategy
	circuitBreaker *pkghttp.CircuitBreaker
	hook           pkghttp.HTTPHook
	logger         logging.StructuredLogger
}

// newHTTPClient creates an HTTP client authenticating as user:password.
func newHTTPClient(cfg *Config, user, password string, strategy pkghttp.RetryStrategy) *httpClient {
	auth := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))

	h := &httpClient{
		client:        cfg.HTTPClient,
		baseURL:       cfg.BaseURL(),
		authHeader:    "Basic " + auth,
		userAgent:     cfg.UserAgent,
		retryStrategy: strategy,
		hook:          pkghttp.CombineHooks(cfg.HTTPHooks...),
		logger:        cfg.Logger,
	}
	if cfg.CircuitBreaker != nil {
		h.circuitBreaker = pkghttp.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return h
}

// request represents an HTTP request to be made.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	result any
}

// do executes an HTTP request with retries and optional circuit breaker protection.
func (h *httpClient) do(ctx context.Context, req *request) error {
	if h.circuitBreaker != nil {
		return h.circuitBreaker.Execute(func() error {
			return h.doWithRetries(ctx, req)
		})
	}
	return h.doWithRetries(ctx, req)
}

// doWithRetries executes an HTTP request with retries.
func (h *httpClient) doWithRetries(ctx context.Context, req *request) error {
	for attempt := 0; ; attempt++ {
		err := h.doOnce(ctx, req)
		if err == nil {
			return nil
		}
		if !h.retryStrategy.ShouldRetry(attempt, err) {
			return err
		}

		var delay time.Duration
		if withErr, ok := h.retryStrategy.(pkghttp.RetryStrategyWithError); ok {
			delay = withErr.RetryDelayWithError(attempt, err)
		} else {
			delay = h.retryStrategy.RetryDelay(attempt)
		}
		h.logger.Debug("retrying langfuse request",
			"method", req.method, "path", req.path, "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// doOnce executes a single HTTP request.
func (h *httpClient) doOnce(ctx context.Context, req *request) error {
	u := h.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		bodyBytes, err := marshalBody(req.body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("langfuse: failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	if ctxID, ok := ctx.Value(requestIDContextKey{}).(string); ok && ctxID != "" {
		requestID = ctxID
	}

	httpReq.Header.Set("Authorization", h.authHeader)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", h.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if h.hook != nil {
		if err := h.hook.BeforeRequest(ctx, httpReq); err != nil {
			return fmt.Errorf("langfuse: hook BeforeRequest failed: %w", err)
		}
	}

	start := time.Now()
	resp, err := h.client.Do(httpReq)
	duration := time.Since(start)

	if h.hook != nil {
		h.hook.AfterResponse(ctx, httpReq, resp, duration, err)
	}

	if err != nil {
		return fmt.Errorf("langfuse: %s %s failed (request_id=%s): %w", req.method, req.path, requestID, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("langfuse: failed to read response body (request_id=%s): %w", requestID, err)
	}
	if len(respBody) > maxResponseSize {
		return fmt.Errorf("langfuse: response body exceeded maximum size of %d bytes (request_id=%s)", maxResponseSize, requestID)
	}

	if resp.StatusCode >= 400 {
		apiErr := &pkgerrors.APIError{}
		if len(respBody) > 0 {
			// Keep the raw body as the message when it is not a JSON error object.
			if err := json.Unmarshal(respBody, apiErr); err != nil {
				apiErr.Message = strings.TrimSpace(string(respBody))
			}
		}
		apiErr.StatusCode = resp.StatusCode
		apiErr.Method = req.method
		apiErr.Path = req.path
		apiErr.RequestID = requestID
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return apiErr
	}

	if req.result != nil && len(respBody) > 0 {
		if raw, ok := req.result.(*json.RawMessage); ok {
			*raw = append((*raw)[:0], respBody...)
			return nil
		}
		if err := json.Unmarshal(respBody, req.result); err != nil {
			return fmt.Errorf("langfuse: failed to unmarshal response (request_id=%s): %w", requestID, err)
		}
	}
	return nil
}

// marshalBody encodes a request body. Raw JSON is forwarded unchanged.
func marshalBody(body any) ([]byte, error) {
	var data []byte
	switch b := body.(type) {
	case json.RawMessage:
		data = b
	case []byte:
		data = b
	default:
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("langfuse: failed to marshal request body: %w", err)
		}
	}
	if len(data) > maxRequestBodySize {
		return nil, fmt.Errorf("langfuse: request body size %d bytes exceeds maximum %d bytes",
			len(data), maxRequestBodySize)
	}
	return data, nil
}

// requestIDContextKey is the context key for request IDs.
type requestIDContextKey struct{}

// WithRequestID returns a context whose Langfuse requests carry requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// parseRetryAfter parses the Retry-After header value.
// It supports both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t)
	}
	return 0
}

// Get performs an HTTP GET request (implements http.Doer).
func (h *httpClient) Get(ctx context.Context, path string, query url.Values, result any) error {
	return h.do(ctx, &request{method: http.MethodGet, path: path, query: query, result: result})
}

// Post performs an HTTP POST request (implements http.Doer).
func (h *httpClient) Post(ctx context.Context, path string, body, result any) error {
	return h.do(ctx, &request{method: http.MethodPost, path: path, body: body, result: result})
}

// Patch performs an HTTP PATCH request (implements http.Doer).
func (h *httpClient) Patch(ctx context.Context, path string, body, result any) error {
	return h.do(ctx, &request{method: http.MethodPatch, path: path, body: body, result: result})
}
