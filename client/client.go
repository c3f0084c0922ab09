// Package client talks to meetprep's collaborators: the MCP agent that
// answers questions about meetings, the hosts serving transcript files, and
// the AI completion service that drafts plans.
package client

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
)

// Default retry settings.
const (
	DefaultMaxRetries        = 2
	DefaultInitialBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff        = 5 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// ClientOptions configures retries for calls that are safe to repeat.
type ClientOptions struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// InitialBackoff is the initial backoff duration for retries.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration for retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// Logger receives retry diagnostics. Nil discards them.
	Logger logging.Logger
}

// DefaultOptions returns ClientOptions with default values.
func DefaultOptions() *ClientOptions {
	return &ClientOptions{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		Logger:            logging.NewNopLogger(),
	}
}

func (o *ClientOptions) logger() logging.Logger {
	if o == nil || o.Logger == nil {
		return logging.NewNopLogger()
	}
	return o.Logger
}

// WithRetry runs fn and retries it with exponential backoff while it fails
// with a retryable error (see apperrors.IsErrorRetryable). Other errors are
// returned at once.
func WithRetry(ctx context.Context, opts *ClientOptions, op string, fn func() error) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	backoff := opts.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !apperrors.IsErrorRetryable(err) || attempt == opts.MaxRetries {
			break
		}

		opts.logger().Debug("Retrying after transient error",
			logging.F("op", op),
			logging.F("attempt", attempt+1),
			logging.F("backoff", backoff.String()),
			logging.Err(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation cancelled during backoff: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * opts.BackoffMultiplier)
		if backoff > opts.MaxBackoff {
			backoff = opts.MaxBackoff
		}
	}

	return lastErr
}
