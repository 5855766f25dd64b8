package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
)

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolated runs Load in an empty temp directory with the given environment.
func isolated(t *testing.T, opts Options, vars map[string]string) (*Config, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	opts.LookupEnv = envMap(vars)
	return Load(opts)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, client.DefaultTimeout, cfg.Langfuse.Timeout)
	assert.True(t, cfg.Langfuse.CircuitBreaker.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoInputs(t *testing.T) {
	cfg, err := isolated(t, Options{}, nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.Path)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.Len(t, cfg.Warnings(), 2)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.yaml", `
langfuse:
  public_key: pk-file
  secret_key: ${FILE_SECRET}
  region: us
  timeout: 5s
  circuit_breaker:
    failure_threshold: 3
    timeout: 1m
server:
  addr: ":9000"
  shutdown_timeout: 2s
log:
  level: debug
  format: text
metrics:
  enabled: false
`)

	cfg, err := isolated(t, Options{Path: path}, map[string]string{"FILE_SECRET": "sk-expanded"})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "pk-file", cfg.Langfuse.PublicKey)
	assert.Equal(t, "sk-expanded", cfg.Langfuse.SecretKey)
	assert.Equal(t, "us", cfg.Langfuse.Region)
	assert.Equal(t, 5*time.Second, cfg.Langfuse.Timeout)
	assert.Equal(t, CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}, cfg.Langfuse.CircuitBreaker)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset fields keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Warnings())
}

func TestLoad_SearchesParentDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "annotator.yaml", "server:\n  addr: \":7777\"\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := Load(Options{LookupEnv: envMap(nil)})
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(root, "annotator.yaml"), cfg.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "annotator.yaml", "langfuse:\n  public_key: pk-file\n  host: https://file.example.com\n")

	cfg, err := isolated(t, Options{Path: path}, map[string]string{
		EnvPublicKey: "pk-env",
		EnvSecretKey: "sk-env",
		EnvHost:      "https://env.example.com",
		EnvPort:      "8080",
		EnvLogLevel:  "warn",
		EnvMetrics:   "false",
	})
	require.NoError(t, err)

	assert.Equal(t, "pk-env", cfg.Langfuse.PublicKey)
	assert.Equal(t, "sk-env", cfg.Langfuse.SecretKey)
	assert.Equal(t, "https://env.example.com", cfg.Langfuse.Host)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Aliases(t *testing.T) {
	cfg, err := isolated(t, Options{}, map[string]string{
		EnvPublicKeyAlias: "pk-alias",
		EnvHostAlias:      "https://alias.example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "pk-alias", cfg.Langfuse.PublicKey)
	assert.Equal(t, "https://alias.example.com", cfg.Langfuse.Host)

	cfg, err = isolated(t, Options{}, map[string]string{
		EnvPublicKey:      "pk-primary",
		EnvPublicKeyAlias: "pk-alias",
		EnvAddr:           "127.0.0.1:4000",
		EnvPort:           "8080",
	})
	require.NoError(t, err)
	assert.Equal(t, "pk-primary", cfg.Langfuse.PublicKey)
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, "test.env", "LANGFUSE_PUBLIC_KEY=pk-dotenv\nLANGFUSE_SECRET_KEY=sk-dotenv\n")

	cfg, err := isolated(t, Options{EnvFile: envFile}, map[string]string{EnvSecretKey: "sk-process"})
	require.NoError(t, err)

	assert.Equal(t, "pk-dotenv", cfg.Langfuse.PublicKey)
	assert.Equal(t, "sk-process", cfg.Langfuse.SecretKey, "process environment wins over .env")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		opts Options
		vars map[string]string
	}{
		{"missing explicit file", Options{Path: filepath.Join(dir, "nope.yaml")}, nil},
		{"malformed yaml", Options{Path: writeFile(t, dir, "bad.yaml", "server: [")}, nil},
		{"unknown region", Options{}, map[string]string{EnvRegion: "mars"}},
		{"unknown log format", Options{}, map[string]string{EnvLogFormat: "xml"}},
		{"invalid metrics flag", Options{}, map[string]string{EnvMetrics: "sometimes"}},
		{"invalid circuit breaker flag", Options{}, map[string]string{EnvCircuitBreaker: "maybe"}},
		{"negative circuit breaker threshold", Options{Path: writeFile(t, dir, "cb.yaml", "langfuse:\n  circuit_breaker:\n    failure_threshold: -1\n")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := isolated(t, tt.opts, tt.vars)
			assert.Error(t, err)
		})
	}
}

func TestConfig_ClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Langfuse.PublicKey = "pk"
	cfg.Langfuse.SecretKey = "sk"
	cfg.Langfuse.Region = "eu"

	cc := cfg.ClientConfig()
	assert.Equal(t, "pk", cc.PublicKey)
	assert.Equal(t, "sk", cc.SecretKey)
	assert.Equal(t, client.RegionEU, cc.Region)
	assert.Equal(t, cfg.Langfuse.Timeout, cc.Timeout)

	opts := cfg.LoggingOptions()
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, "json", opts.Format)
}

func TestConfig_CircuitBreaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Langfuse.CircuitBreaker.FailureThreshold = 2
	cfg.Langfuse.CircuitBreaker.Timeout = time.Minute

	cb := cfg.CircuitBreaker()
	require.NotNil(t, cb)
	assert.Equal(t, pkghttp.CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	}, *cb)

	disabled, err := isolated(t, Options{}, map[string]string{EnvCircuitBreaker: "false"})
	require.NoError(t, err)
	assert.Nil(t, disabled.CircuitBreaker())
}

func TestConfig_StringMasksCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Langfuse.PublicKey = "pk-lf-1234567890"
	cfg.Langfuse.SecretKey = "sk-lf-abcdefghij"

	s := cfg.String()
	assert.NotContains(t, s, "1234567890")
	assert.NotContains(t, s, "abcdefghij")
}
