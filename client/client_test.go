package client

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
)

// TestDefaultOptions verifies the default client options.
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %v, want %v", opts.MaxRetries, DefaultMaxRetries)
	}
	if opts.InitialBackoff != DefaultInitialBackoff {
		t.Errorf("InitialBackoff = %v, want %v", opts.InitialBackoff, DefaultInitialBackoff)
	}
	if opts.MaxBackoff != DefaultMaxBackoff {
		t.Errorf("MaxBackoff = %v, want %v", opts.MaxBackoff, DefaultMaxBackoff)
	}
	if opts.BackoffMultiplier != DefaultBackoffMultiplier {
		t.Errorf("BackoffMultiplier = %v, want %v", opts.BackoffMultiplier, DefaultBackoffMultiplier)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a nop logger")
	}
}

func TestWithRetry(t *testing.T) {
	opts := &ClientOptions{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
	}

	t.Run("succeeds after transient errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), opts, "test", func() error {
			calls++
			if calls < 3 {
				return apperrors.NewAgentError(apperrors.CodeRateLimit, "test", "slow down")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithRetry() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), opts, "test", func() error {
			calls++
			return apperrors.NewAgentError(apperrors.CodeAgentTimeout, "test", "slow")
		})
		if !errors.Is(err, apperrors.ErrAgentTimeout) {
			t.Errorf("WithRetry() error = %v, want ErrAgentTimeout", err)
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad request")
		err := WithRetry(context.Background(), opts, "test", func() error {
			calls++
			return permanent
		})
		if !errors.Is(err, permanent) {
			t.Errorf("WithRetry() error = %v, want %v", err, permanent)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := &ClientOptions{MaxRetries: 3, InitialBackoff: time.Hour, MaxBackoff: time.Hour, BackoffMultiplier: 1}
		cancel()
		err := WithRetry(ctx, slow, "test", func() error {
			return apperrors.NewAgentError(apperrors.CodeRateLimit, "test", "slow down")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WithRetry() error = %v, want context.Canceled", err)
		}
	})
}
