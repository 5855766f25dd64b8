package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/jdziat/langfuse-annotator/pkg/errors"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// Region represents a Langfuse cloud region.
type Region string

const (
	// RegionEU is the European cloud region.
	RegionEU Region = "eu"
	// RegionUS is the US cloud region.
	RegionUS Region = "us"
	// RegionHIPAA is the HIPAA-compliant US region.
	RegionHIPAA Region = "hipaa"
)

// RegionHosts maps regions to their hosts.
var RegionHosts = map[Region]string{
	RegionEU:    "https://cloud.langfuse.com",
	RegionUS:    "https://us.cloud.langfuse.com",
	RegionHIPAA: "https://hipaa.cloud.langfuse.com",
}

// String returns the string representation of the region.
func (r Region) String() string {
	return string(r)
}

// Default configuration values.
const (
	// DefaultHost is used when neither Host nor Region is set.
	DefaultHost = "https://cloud.langfuse.com"

	// APIPrefix is the path prefix of the public API.
	APIPrefix = "/api/public"

	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
)

// Config holds the configuration for the Langfuse client.
type Config struct {
	// PublicKey is the Langfuse public key.
	PublicKey string

	// SecretKey is the Langfuse secret key. Reads need it; score writes do not.
	SecretKey string

	// Host is the Langfuse host, e.g. https://cloud.langfuse.com.
	// A trailing /api/public is tolerated.
	Host string

	// Region selects a cloud host when Host is empty.
	Region Region

	// HTTPClient is the HTTP client to use for requests.
	HTTPClient *http.Client

	// Timeout is the per-request timeout of the default HTTP client.
	Timeout time.Duration

	// MaxRetries is the retry budget of the default retry strategy.
	MaxRetries int

	// RetryDelay is the initial backoff of the default retry strategy.
	RetryDelay time.Duration

	// RetryStrategy overrides the default exponential backoff.
	RetryStrategy pkghttp.RetryStrategy

	// CircuitBreaker enables fail-fast behavior for read calls when set.
	CircuitBreaker *pkghttp.CircuitBreakerConfig

	// HTTPHooks are called before and after each HTTP request.
	HTTPHooks []pkghttp.HTTPHook

	// Logger receives retry and failure diagnostics.
	Logger logging.StructuredLogger

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// ApplyDefaults sets default values for unset configuration options.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		if host, ok := RegionHosts[c.Region]; ok {
			c.Host = host
		} else {
			c.Host = DefaultHost
		}
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.UserAgent == "" {
		c.UserAgent = "langfuse-annotator/" + Version
	}
	c.Logger = logging.OrNop(c.Logger)
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: c.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
}

// Validate checks that the configuration is usable.
//
// Missing credentials are not an error: the service starts and upstream
// calls fail with 401 until keys are provided.
func (c *Config) Validate() error {
	if c.Host == "" {
		return pkgerrors.ErrMissingBaseURL
	}
	u, err := url.Parse(c.Host)
	if err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", pkgerrors.ErrInvalidBaseURL, c.Host)
	}
	return nil
}

// BaseURL returns the public API root for the configured host.
func (c *Config) BaseURL() string {
	host := strings.TrimSuffix(c.Host, "/")
	if strings.HasSuffix(host, APIPrefix) {
		return host
	}
	return host + APIPrefix
}

// MissingCredentials lists the credential names that are unset.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.PublicKey == "" {
		missing = append(missing, "public key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret key")
	}
	return missing
}

// String returns a string representation with masked credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{PublicKey: %q, SecretKey: %q, Host: %q, Region: %q}",
		logging.MaskCredential(c.PublicKey),
		logging.MaskCredential(c.SecretKey),
		c.Host,
		c.Region,
	)
}
