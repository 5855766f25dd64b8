package http

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// RetryableError is an interface for errors that know if they're retryable.
type RetryableError interface {
	error
	IsRetryable() bool
}

// RetryAfterError is an interface for errors carrying a server retry hint.
type RetryAfterError interface {
	error
	SuggestedRetryAfter() time.Duration
}

// IsRetryableNetworkError determines if a network error is transient.
// DNS failures, refused connections and TLS errors are permanent.
func IsRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.EPIPE:
			return true
		case syscall.ECONNREFUSED, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return false
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return IsRetryableNetworkError(urlErr.Err)
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"certificate", "x509:", "tls:", "no such host", "connection refused"} {
		if strings.Contains(msg, pattern) {
			return false
		}
	}
	for _, pattern := range []string{"timeout", "reset by peer", "broken pipe", "eof"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// shouldRetryErr classifies err for the built-in strategies.
func shouldRetryErr(err error) bool {
	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return IsRetryableNetworkError(err)
}

// RetryStrategy defines how failed requests are retried.
type RetryStrategy interface {
	// ShouldRetry returns true if the request should be retried.
	ShouldRetry(attempt int, err error) bool

	// RetryDelay returns how long to wait before the next attempt.
	RetryDelay(attempt int) time.Duration
}

// RetryStrategyWithError is implemented by strategies that honor server
// Retry-After hints carried by the error.
type RetryStrategyWithError interface {
	RetryStrategy
	RetryDelayWithError(attempt int, err error) time.Duration
}

// ExponentialBackoff implements exponential backoff with optional jitter.
// Zero fields fall back to 500ms initial delay, 10s max delay, a 2x
// multiplier and 3 retries.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	MaxRetries   int
}

// NewExponentialBackoff creates an exponential backoff strategy with defaults.
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		MaxRetries:   3,
	}
}

// ShouldRetry implements RetryStrategy.
func (e *ExponentialBackoff) ShouldRetry(attempt int, err error) bool {
	maxRetries := e.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	if attempt >= maxRetries {
		return false
	}
	return shouldRetryErr(err)
}

// RetryDelay implements RetryStrategy.
func (e *ExponentialBackoff) RetryDelay(attempt int) time.Duration {
	initial := e.InitialDelay
	if initial == 0 {
		initial = 500 * time.Millisecond
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}

	delay := min(float64(initial)*math.Pow(multiplier, float64(attempt)), float64(e.maxDelay()))
	if e.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}

// RetryDelayWithError implements RetryStrategyWithError. A server supplied
// Retry-After wins over the computed delay, capped at MaxDelay.
func (e *ExponentialBackoff) RetryDelayWithError(attempt int, err error) time.Duration {
	var hinted RetryAfterError
	if errors.As(err, &hinted) {
		if d := hinted.SuggestedRetryAfter(); d > 0 {
			return min(d, e.maxDelay())
		}
	}
	return e.RetryDelay(attempt)
}

func (e *ExponentialBackoff) maxDelay() time.Duration {
	if e.MaxDelay == 0 {
		return 10 * time.Second
	}
	return e.MaxDelay
}

// NoRetry is a retry strategy that never retries.
type NoRetry struct{}

// ShouldRetry implements RetryStrategy.
func (NoRetry) ShouldRetry(int, error) bool { return false }

// RetryDelay implements RetryStrategy.
func (NoRetry) RetryDelay(int) time.Duration { return 0 }

// FixedDelay retries with a constant delay.
type FixedDelay struct {
	Delay      time.Duration
	MaxRetries int
}

// ShouldRetry implements RetryStrategy.
func (f *FixedDelay) ShouldRetry(attempt int, err error) bool {
	return attempt < f.MaxRetries && shouldRetryErr(err)
}

// RetryDelay implements RetryStrategy.
func (f *FixedDelay) RetryDelay(int) time.Duration {
	return f.Delay
}
