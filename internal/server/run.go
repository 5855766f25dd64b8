package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jdziat/langfuse-annotator/internal/config"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// Run serves handler until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger logging.StructuredLogger) error {
	logger = logging.OrNop(logger)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, cfg, handler, logger)
}

func serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig, handler http.Handler, logger logging.StructuredLogger) error {
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("annotator listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
