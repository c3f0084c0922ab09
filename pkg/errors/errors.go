// Package errors provides common domain error types for meetprep.
//
// This package defines sentinel errors for conditions like "validation
// failed" or "agent timed out" that can be used across all packages. Using
// typed errors enables consistent error handling with errors.Is() checks.
//
// Usage:
//
//	import mperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
//
//	// Return a domain error
//	return "", fmt.Errorf("subject: %w", mperrors.ErrValidation)
//
//	// Check for domain errors
//	if mperrors.IsAgentTimeout(err) {
//	    // handle timeout
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized indicates the request lacks valid authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAgentUnavailable indicates the agent process could not be started
	// or reached.
	ErrAgentUnavailable = errors.New("agent unavailable")

	// ErrAgentTimeout indicates the agent did not answer within the time limit.
	ErrAgentTimeout = errors.New("agent timeout")

	// ErrAgentProtocol indicates the agent answered with malformed framing or
	// without the expected tool.
	ErrAgentProtocol = errors.New("agent protocol error")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsAgentUnavailable reports whether any error in err's chain is ErrAgentUnavailable.
func IsAgentUnavailable(err error) bool {
	return errors.Is(err, ErrAgentUnavailable)
}

// IsAgentTimeout reports whether any error in err's chain is ErrAgentTimeout.
func IsAgentTimeout(err error) bool {
	return errors.Is(err, ErrAgentTimeout)
}

// IsAgentProtocol reports whether any error in err's chain is ErrAgentProtocol.
func IsAgentProtocol(err error) bool {
	return errors.Is(err, ErrAgentProtocol)
}
