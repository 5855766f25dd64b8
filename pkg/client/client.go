package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/jdziat/langfuse-annotator/pkg/api/annotationqueues"
	"github.com/jdziat/langfuse-annotator/pkg/api/scoreconfigs"
	"github.com/jdziat/langfuse-annotator/pkg/api/sessions"
	"github.com/jdziat/langfuse-annotator/pkg/api/traces"
	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/ingestion"
	"github.com/jdziat/langfuse-annotator/pkg/types"
)

// Version is the client version reported in the User-Agent header.
const Version = "0.3.0"

// Client is the Langfuse public API client.
type Client struct {
	config *Config
	http   *httpClient
	score  *httpClient
	update *httpClient

	queues       *annotationqueues.Client
	itemUpdates  *annotationqueues.Client
	sessions     *sessions.Client
	traces       *traces.Client
	scoreConfigs *scoreconfigs.Client
}

// New creates a new Langfuse client from cfg.
func New(cfg Config, opts ...ConfigOption) (*Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.CircuitBreaker != nil && cfg.CircuitBreaker.IsFailure == nil {
		cb := *cfg.CircuitBreaker
		cb.IsFailure = isUpstreamFailure
		cfg.CircuitBreaker = &cb
	}

	strategy := cfg.RetryStrategy
	if strategy == nil {
		strategy = &pkghttp.ExponentialBackoff{
			InitialDelay: cfg.RetryDelay,
			Multiplier:   2.0,
			Jitter:       true,
			MaxRetries:   cfg.MaxRetries,
		}
	}

	reads := newHTTPClient(&cfg, cfg.PublicKey, cfg.SecretKey, strategy)

	// Score writes authenticate with the public key alone and are never
	// retried by the transport: a failed flush is reported to the caller.
	scoreCfg := cfg
	scoreCfg.CircuitBreaker = nil
	writes := newHTTPClient(&scoreCfg, cfg.PublicKey, "", pkghttp.NoRetry{})

	// Item updates need both keys and are not retried either: a failed
	// status change must reach the annotator, who re-attempts it.
	updateCfg := cfg
	updateCfg.CircuitBreaker = nil
	updates := newHTTPClient(&updateCfg, cfg.PublicKey, cfg.SecretKey, pkghttp.NoRetry{})

	for _, missing := range cfg.MissingCredentials() {
		cfg.Logger.Warn("langfuse credential not configured; upstream calls will be rejected", "missing", missing)
	}

	return &Client{
		config:       &cfg,
		http:         reads,
		score:        writes,
		update:       updates,
		queues:       annotationqueues.New(reads),
		itemUpdates:  annotationqueues.New(updates),
		sessions:     sessions.New(reads),
		traces:       traces.New(reads),
		scoreConfigs: scoreconfigs.New(reads),
	}, nil
}

// isUpstreamFailure counts only server-side and transport errors against
// the circuit; 4xx answers prove the upstream is alive.
func isUpstreamFailure(err error) bool {
	if apiErr, ok := pkgerrors.AsAPIError(err); ok {
		return apiErr.IsServerError()
	}
	return true
}

// Config returns a copy of the effective configuration.
func (c *Client) Config() Config {
	return *c.config
}

// AnnotationQueues returns the annotation queues API client.
func (c *Client) AnnotationQueues() *annotationqueues.Client { return c.queues }

// Sessions returns the sessions API client.
func (c *Client) Sessions() *sessions.Client { return c.sessions }

// Traces returns the traces API client.
func (c *Client) Traces() *traces.Client { return c.traces }

// ScoreConfigs returns the score configs API client.
func (c *Client) ScoreConfigs() *scoreconfigs.Client { return c.scoreConfigs }

// Doer exposes the authenticated transport for raw pass-through calls.
func (c *Client) Doer() pkghttp.Doer { return c.http }

// ScoreQueue returns a new score queue bound to the public-key transport.
func (c *Client) ScoreQueue(opts ...ingestion.QueueOption) *ingestion.ScoreQueue {
	return ingestion.NewScoreQueue(c.score, opts...)
}

// UpdateItemStatus sets the status of a queue item. The PATCH is sent once.
func (c *Client) UpdateItemStatus(ctx context.Context, queueID, itemID string, status types.QueueItemStatus) (*types.QueueItem, error) {
	return c.itemUpdates.UpdateItemStatus(ctx, queueID, itemID, status)
}

// GetRaw fetches path and returns the undecoded response body.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.http.Get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// PatchRaw forwards body to path unchanged and returns the raw response.
// Like UpdateItemStatus it is never retried.
func (c *Client) PatchRaw(ctx context.Context, path string, body json.RawMessage) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.update.Patch(ctx, path, body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CircuitBreakerState returns the current circuit breaker state.
func (c *Client) CircuitBreakerState() pkghttp.CircuitState {
	if c.http.circuitBreaker == nil {
		return pkghttp.CircuitClosed
	}
	return c.http.circuitBreaker.State()
}
