package client

import (
	"net/http"
	"time"

	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// ConfigOption configures the client.
type ConfigOption func(*Config)

// WithHost sets the Langfuse host.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithRegion sets the Langfuse cloud region.
func WithRegion(region Region) ConfigOption {
	return func(c *Config) {
		c.Region = region
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ConfigOption {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetryStrategy sets the retry strategy for read calls.
func WithRetryStrategy(strategy pkghttp.RetryStrategy) ConfigOption {
	return func(c *Config) {
		c.RetryStrategy = strategy
	}
}

// WithNoRetries disables retries for read calls.
func WithNoRetries() ConfigOption {
	return WithRetryStrategy(pkghttp.NoRetry{})
}

// WithCircuitBreaker enables the circuit breaker.
func WithCircuitBreaker(config pkghttp.CircuitBreakerConfig) ConfigOption {
	return func(c *Config) {
		c.CircuitBreaker = &config
	}
}

// WithHTTPHooks appends request hooks.
func WithHTTPHooks(hooks ...pkghttp.HTTPHook) ConfigOption {
	return func(c *Config) {
		c.HTTPHooks = append(c.HTTPHooks, hooks...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.StructuredLogger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}
