// Package config loads annotator configuration from an optional YAML file,
// an optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// Environment variables read by Load. The NEXT_PUBLIC_ names are accepted
// as aliases so existing deployments keep working.
const (
	EnvPublicKey      = "LANGFUSE_PUBLIC_KEY"
	EnvSecretKey      = "LANGFUSE_SECRET_KEY"
	EnvHost           = "LANGFUSE_HOST"
	EnvBaseURL        = "LANGFUSE_BASE_URL"
	EnvRegion         = "LANGFUSE_REGION"
	EnvPublicKeyAlias = "NEXT_PUBLIC_LANGFUSE_PUBLIC_KEY"
	EnvHostAlias      = "NEXT_PUBLIC_LANGFUSE_HOST"
	EnvPort           = "PORT"
	EnvAddr           = "ANNOTATOR_ADDR"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvMetrics        = "ANNOTATOR_METRICS"
	EnvCircuitBreaker = "LANGFUSE_CIRCUIT_BREAKER"
)

// FileNames are the configuration file names searched for, in order.
var FileNames = []string{"annotator.yaml", "annotator.yml", ".annotator.yaml"}

// Config is the complete annotator configuration.
type Config struct {
	Langfuse LangfuseConfig `yaml:"langfuse"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// Path is the configuration file that was loaded, if any.
	Path string `yaml:"-"`
}

// LangfuseConfig holds the upstream connection settings.
type LangfuseConfig struct {
	PublicKey      string               `yaml:"public_key"`
	SecretKey      string               `yaml:"secret_key"`
	Host           string               `yaml:"host"`
	Region         string               `yaml:"region"`
	Timeout        time.Duration        `yaml:"timeout"`
	MaxRetries     int                  `yaml:"max_retries"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig guards upstream reads. Writes are never blocked by it.
type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Langfuse: LangfuseConfig{
			Timeout:    client.DefaultTimeout,
			MaxRetries: client.DefaultMaxRetries,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 1,
				Timeout:          30 * time.Second,
			},
		},
		Server: ServerConfig{
			Addr:            ":3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Options controls where Load looks for its inputs.
type Options struct {
	// Path is an explicit configuration file. When empty the working
	// directory and its parents are searched for FileNames.
	Path string
	// EnvFile is the dotenv file to read. Defaults to ".env"; a missing
	// file is not an error.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration from defaults, the YAML file, the dotenv
// file and the environment.
func Load(opts Options) (*Config, error) {
	cfg := DefaultConfig()

	path := opts.Path
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.Path = path
	}

	lookup, err := newLookup(opts)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}
	expandEnvVars(cfg, lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile searches the working directory and its parents.
func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

type lookupFunc func(string) (string, bool)

// newLookup layers the process environment over the dotenv file.
func newLookup(opts Options) (lookupFunc, error) {
	env := opts.LookupEnv
	if env == nil {
		env = os.LookupEnv
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		dotenv = nil
	}

	return func(key string) (string, bool) {
		if v, ok := env(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}, nil
}

// first returns the value of the first key that is set.
func (l lookupFunc) first(keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := l(key); ok {
			return v, true
		}
	}
	return "", false
}

func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	if v, ok := lookup.first(EnvPublicKey, EnvPublicKeyAlias); ok {
		cfg.Langfuse.PublicKey = v
	}
	if v, ok := lookup(EnvSecretKey); ok {
		cfg.Langfuse.SecretKey = v
	}
	if v, ok := lookup.first(EnvHost, EnvBaseURL, EnvHostAlias); ok {
		cfg.Langfuse.Host = v
	}
	if v, ok := lookup(EnvRegion); ok {
		cfg.Langfuse.Region = v
	}
	if v, ok := lookup(EnvAddr); ok {
		cfg.Server.Addr = v
	} else if v, ok := lookup(EnvPort); ok {
		cfg.Server.Addr = ":" + v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup(EnvMetrics); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMetrics, v, err)
		}
		cfg.Metrics.Enabled = enabled
	}
	if v, ok := lookup(EnvCircuitBreaker); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCircuitBreaker, v, err)
		}
		cfg.Langfuse.CircuitBreaker.Enabled = enabled
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars expands ${VAR} references in credential and host values.
func expandEnvVars(cfg *Config, lookup lookupFunc) {
	expand := func(s string) string {
		return envRef.ReplaceAllStringFunc(s, func(match string) string {
			v, _ := lookup(match[2 : len(match)-1])
			return v
		})
	}
	cfg.Langfuse.PublicKey = expand(cfg.Langfuse.PublicKey)
	cfg.Langfuse.SecretKey = expand(cfg.Langfuse.SecretKey)
	cfg.Langfuse.Host = expand(cfg.Langfuse.Host)
}

// Validate checks values that would otherwise fail later at startup.
// Missing credentials are reported by Warnings, not here.
func (c *Config) Validate() error {
	if c.Langfuse.Region != "" {
		if _, ok := client.RegionHosts[client.Region(c.Langfuse.Region)]; !ok {
			return fmt.Errorf("config: unknown region %q", c.Langfuse.Region)
		}
	}
	if c.Server.Addr == "" {
		return errors.New("config: server address is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Langfuse.MaxRetries < 0 {
		return errors.New("config: max_retries must not be negative")
	}
	if cb := c.Langfuse.CircuitBreaker; cb.Enabled && (cb.FailureThreshold < 0 || cb.SuccessThreshold < 0 || cb.Timeout < 0) {
		return errors.New("config: circuit_breaker values must not be negative")
	}
	return nil
}

// Warnings describes settings that allow startup but will fail requests.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Langfuse.PublicKey == "" {
		warnings = append(warnings, "Langfuse public key is not set; upstream requests will be rejected")
	}
	if c.Langfuse.SecretKey == "" {
		warnings = append(warnings, "Langfuse secret key is not set; reads will be rejected")
	}
	return warnings
}

// ClientConfig converts the upstream settings into a client configuration.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		PublicKey:  c.Langfuse.PublicKey,
		SecretKey:  c.Langfuse.SecretKey,
		Host:       c.Langfuse.Host,
		Region:     client.Region(c.Langfuse.Region),
		Timeout:    c.Langfuse.Timeout,
		MaxRetries: c.Langfuse.MaxRetries,
	}
}

// CircuitBreaker returns the breaker settings for the upstream client, or
// nil when the breaker is disabled. Zero values take the client defaults.
func (c *Config) CircuitBreaker() *pkghttp.CircuitBreakerConfig {
	cb := c.Langfuse.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	return &pkghttp.CircuitBreakerConfig{
		FailureThreshold: cb.FailureThreshold,
		SuccessThreshold: cb.SuccessThreshold,
		Timeout:          cb.Timeout,
	}
}

// LoggingOptions converts the log settings into logger options.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}

// String renders the configuration with credentials masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %q, Region: %q, PublicKey: %s, SecretKey: %s, Addr: %q, Log: %s/%s}",
		c.Langfuse.Host, c.Langfuse.Region,
		logging.MaskCredential(c.Langfuse.PublicKey), logging.MaskCredential(c.Langfuse.SecretKey),
		c.Server.Addr, c.Log.Level, c.Log.Format)
}
