package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/server"
)

// ServeCommandDeps holds the dependencies for the serve command.
type ServeCommandDeps struct {
	LoadConfig func() (*config.CLIConfig, error)
	// Serve runs the HTTP API on addr until ctx is cancelled.
	Serve func(ctx context.Context, cfg *config.CLIConfig, addr string) error
}

// DefaultServeDeps returns the default dependencies for production use.
func DefaultServeDeps() *ServeCommandDeps {
	return &ServeCommandDeps{
		LoadConfig: config.LoadConfig,
		Serve:      serveAPI,
	}
}

// NewServeCommand creates the 'serve' command.
func NewServeCommand(deps *ServeCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultServeDeps()
	}

	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over a local HTTP API",
		Long: `Serve the assistant over a local HTTP API.

Endpoints:
  GET  /api/meetings
  GET  /api/meetings/transcript?subject=&date=
  GET  /api/meetings/insights?subject=&date=
  POST /api/ask              {"question": "..."}
  GET  /api/models
  POST /api/generate-plan    {"transcript": "...", "subject": "...", "model": "..."} (SSE)
  GET  /metrics, /version, /healthz

Examples:
  meetprep serve
  meetprep serve --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if addr == "" {
				addr = cfg.Server.Address
			}
			return deps.Serve(cmd.Context(), cfg, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from configuration)")
	return cmd
}

func serveAPI(ctx context.Context, cfg *config.CLIConfig, addr string) error {
	logger := NewLogger(cfg, "server")
	rt, err := NewRuntime(ctx, cfg, RuntimeOptions{
		Registerer: prometheus.DefaultRegisterer,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("Starting HTTP API",
		logging.F("address", addr),
		logging.F("agent", cfg.Agent.Command),
		logging.F("cache", cfg.Cache.Enabled))

	srv := server.New(rt.Service, server.Options{
		Metrics:  rt.Metrics,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	})
	return srv.ListenAndServe(ctx, addr)
}
