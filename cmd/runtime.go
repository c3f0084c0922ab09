// Package cmd provides CLI commands for the meetprep tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"

	"github.com/otherjamesbrown/meetprep/client"
	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/credentials"
	"github.com/otherjamesbrown/meetprep/pkg/assistant"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/classify"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/observability"
)

// Runtime holds the collaborators built from configuration.
type Runtime struct {
	Config  *config.CLIConfig
	Logger  logging.Logger
	Metrics *observability.Metrics
	Service *assistant.Service

	closers []io.Closer
}

// RuntimeOptions customizes NewRuntime. Zero values select the defaults.
type RuntimeOptions struct {
	// Registerer receives the metrics; a private registry when nil.
	Registerer prometheus.Registerer
	Logger     logging.Logger
	// TokenSource authenticates AI requests. When nil the token comes from
	// the environment or the credential store.
	TokenSource oauth2.TokenSource
}

// NewRuntime wires the agent client, answer cache, downloader and AI client
// into an assistant.Service. Plans and model listing are disabled when no
// AI token is available.
func NewRuntime(ctx context.Context, cfg *config.CLIConfig, opts RuntimeOptions) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := observability.NewMetrics(reg)
	rt := &Runtime{Config: cfg, Logger: logger, Metrics: metrics}

	classifier := classify.New(cfg.Classifier)
	var agent client.Asker = client.NewAgentClient(cfg.Agent,
		client.WithAgentLogger(logger),
		client.WithDefaultTimeout(cfg.Timeout))

	if cfg.Cache.Enabled {
		store, err := client.NewAnswerStore(ctx, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("opening answer cache: %w", err)
		}
		if c, ok := store.(io.Closer); ok {
			rt.closers = append(rt.closers, c)
		}
		logger.Debug("Answer cache enabled", logging.F("backend", store.Backend()))
		agent = client.NewCachedAgent(agent, store, cfg.Cache.TTL, classifier.IsRefusal, metrics, logger)
	}

	deps := assistant.Deps{
		Agent:      agent,
		Downloader: client.NewDownloader(cfg.Agent.DownloadTimeout, metrics, logger),
		Classifier: classifier,
		Timeouts:   assistant.TimeoutsFromConfig(cfg),
		Metrics:    metrics,
		Logger:     logger,
	}

	ts, err := aiTokenSource(opts.TokenSource)
	if err != nil {
		logger.Debug("AI completions disabled", logging.Err(err))
	} else {
		clientOpts := client.DefaultOptions()
		clientOpts.Logger = logger
		deps.AI = client.NewAIClient(cfg.AI, ts, metrics, clientOpts)
	}

	rt.Service = assistant.New(deps)
	return rt, nil
}

// aiTokenSource prefers ts, then a token from the environment, then the
// credential store.
func aiTokenSource(ts oauth2.TokenSource) (oauth2.TokenSource, error) {
	if ts != nil {
		return ts, nil
	}
	if creds := credentials.EnvCredential(); creds != nil {
		return credentials.StaticTokenSource(creds.Token, creds.ExpiresAt), nil
	}
	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("initializing credential store: %w", err)
	}
	if _, err := store.GetActiveCredential(); err != nil {
		return nil, err
	}
	return store, nil
}

// Close releases the cache connection.
func (r *Runtime) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger for a command. Debug mode logs everything;
// otherwise the CLI logs warnings and the server logs requests.
func NewLogger(cfg *config.CLIConfig, component string) logging.Logger {
	level := logging.LevelWarn
	if component == "server" {
		level = logging.LevelInfo
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	return logging.NewLogger(&logging.Config{
		Level:      level,
		Component:  component,
		JSONFormat: component == "server" && cfg.Server.LogJSON,
		NoColor:    os.Getenv("NO_COLOR") != "",
		Output:     os.Stderr,
	})
}
