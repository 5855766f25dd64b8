package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdziat/langfuse-annotator/internal/annotation"
	"github.com/jdziat/langfuse-annotator/internal/metrics"
	"github.com/jdziat/langfuse-annotator/internal/server"
	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/ingestion"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the annotation API",
		Long: `Start the HTTP server. It proxies queue, session, trace and score config
reads to Langfuse and exposes the annotation view and score submission.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	var (
		m         *metrics.Metrics
		metricsH  http.Handler
		hooks     []pkghttp.HTTPHook
		queueOpts []ingestion.QueueOption
	)
	if a.cfg.Metrics.Enabled {
		m = metrics.New(nil)
		metricsH = metrics.Handler(nil)
		hooks = append(hooks, m.UpstreamHook())
		queueOpts = append(queueOpts, ingestion.WithOnFlushed(m.ObserveFlush))
	}

	c, err := a.newClient(hooks...)
	if err != nil {
		return err
	}

	handler := server.New(server.Config{
		Backend:        annotation.NewClientBackend(c, queueOpts...),
		Upstream:       c,
		Logger:         a.logger,
		Metrics:        m,
		MetricsHandler: metricsH,
		MetricsPath:    a.cfg.Metrics.Path,
		Version:        client.Version,
	})
	a.logger.Info("starting annotator", "config", a.cfg.String())
	return server.Run(ctx, a.cfg.Server, handler, a.logger)
}
