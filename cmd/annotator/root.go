package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jdziat/langfuse-annotator/internal/config"
	"github.com/jdziat/langfuse-annotator/pkg/client"
	pkghttp "github.com/jdziat/langfuse-annotator/pkg/http"
	"github.com/jdziat/langfuse-annotator/pkg/logging"
)

// app carries state shared by the subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *logging.SlogAdapter

	stdin          io.Reader
	stdout, stderr io.Writer
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:          "annotator",
		Short:        "Human annotation of Langfuse traces and sessions",
		Long:         `annotator works through Langfuse annotation queues: it serves the annotation API over HTTP and offers an interactive terminal loop.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file (default: search for annotator.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCommand(a),
		newQueuesCommand(a),
		newAnnotateCommand(a),
		newVersionCommand(a),
	)
	return root
}

// init loads configuration and builds the logger. Logs go to stderr so
// command output stays clean.
func (a *app) init() error {
	cfg, err := config.Load(config.Options{Path: a.configPath})
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	opts := cfg.LoggingOptions()
	opts.Output = a.stderr
	a.logger = logging.New(opts)
	for _, w := range cfg.Warnings() {
		a.logger.Warn(w)
	}
	if cfg.Path != "" {
		a.logger.Debug("configuration loaded", "path", cfg.Path)
	}
	return nil
}

// newClient builds the upstream client. Missing credentials are logged by
// the client itself.
func (a *app) newClient(hooks ...pkghttp.HTTPHook) (*client.Client, error) {
	opts := []client.ConfigOption{client.WithLogger(a.logger)}
	if len(hooks) > 0 {
		opts = append(opts, client.WithHTTPHooks(hooks...))
	}
	if cb := a.cfg.CircuitBreaker(); cb != nil {
		cb.OnStateChange = func(from, to pkghttp.CircuitState) {
			a.logger.Warn("upstream circuit changed", "from", from.String(), "to", to.String())
		}
		opts = append(opts, client.WithCircuitBreaker(*cb))
	}
	return client.New(a.cfg.ClientConfig(), opts...)
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "annotator %s\n", client.Version)
			fmt.Fprintf(a.stdout, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(a.stdout, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
