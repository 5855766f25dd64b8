package http

import (
	"context"
	"net/http"
	"time"
)

// HTTPHook observes or decorates outgoing Langfuse requests.
//
// Hooks are used to:
//   - Add headers such as a request id
//   - Record upstream latency and status metrics
//   - Log failed calls
type HTTPHook interface {
	// BeforeRequest is called before sending the request. Returning an error aborts it.
	BeforeRequest(ctx context.Context, req *http.Request) error

	// AfterResponse is called after the round trip, with resp nil on transport errors.
	AfterResponse(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error)
}

// HTTPHookFunc is a function adapter for simple hooks.
type HTTPHookFunc struct {
	Before func(ctx context.Context, req *http.Request) error
	After  func(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error)
}

// BeforeRequest implements HTTPHook.
func (f HTTPHookFunc) BeforeRequest(ctx context.Context, req *http.Request) error {
	if f.Before != nil {
		return f.Before(ctx, req)
	}
	return nil
}

// AfterResponse implements HTTPHook.
func (f HTTPHookFunc) AfterResponse(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error) {
	if f.After != nil {
		f.After(ctx, req, resp, duration, err)
	}
}

// hookChain combines multiple hooks into a single hook.
type hookChain []HTTPHook

func (c hookChain) BeforeRequest(ctx context.Context, req *http.Request) error {
	for _, hook := range c {
		if err := hook.BeforeRequest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// AfterResponse runs in reverse order so hooks wrap like middleware.
func (c hookChain) AfterResponse(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error) {
	for i := len(c) - 1; i >= 0; i-- {
		c[i].AfterResponse(ctx, req, resp, duration, err)
	}
}

// CombineHooks combines hooks into one. It returns nil for no hooks.
func CombineHooks(hooks ...HTTPHook) HTTPHook {
	var nonNil hookChain
	for _, h := range hooks {
		if h != nil {
			nonNil = append(nonNil, h)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}
	return nonNil
}

// HeaderHook creates a hook that sets static headers on every request.
func HeaderHook(headers map[string]string) HTTPHook {
	return HTTPHookFunc{
		Before: func(_ context.Context, req *http.Request) error {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			return nil
		},
	}
}

// RequestIDFromContext extracts a correlation id for outgoing requests.
type RequestIDFromContext func(ctx context.Context) string

// RequestIDHook propagates an inbound request id as X-Request-ID.
// Requests keep their generated id when the context carries none.
func RequestIDHook(fn RequestIDFromContext) HTTPHook {
	return HTTPHookFunc{
		Before: func(ctx context.Context, req *http.Request) error {
			if id := fn(ctx); id != "" {
				req.Header.Set("X-Request-ID", id)
			}
			return nil
		},
	}
}
