package errors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrorCode represents a classified collaborator error.
type ErrorCode string

const (
	CodeAgentUnavailable ErrorCode = "agent_unavailable"
	CodeAgentTimeout     ErrorCode = "agent_timeout"
	CodeAgentProtocol    ErrorCode = "agent_protocol"
	CodeCancelled        ErrorCode = "cancelled"
	CodeRateLimit        ErrorCode = "rate_limit"
	CodeModelUnavailable ErrorCode = "model_unavailable"
	CodeInternal         ErrorCode = "internal_error"
)

// AgentError is a structured error for failed calls to the agent or the
// AI completion service.
type AgentError struct {
	Code     ErrorCode
	Op       string
	Message  string
	Duration time.Duration
	Timeout  time.Duration
	Cause    error
}

func (e *AgentError) Error() string {
	if e.Code == CodeAgentTimeout && e.Timeout > 0 && e.Duration > 0 {
		return fmt.Sprintf("%s: %s timed out after %s (limit: %s)", e.Code, e.Op, e.Duration.Truncate(time.Second), e.Timeout.Truncate(time.Second))
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AgentError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel error for the code, so errors.Is(err,
// ErrAgentTimeout) holds for an AgentError with CodeAgentTimeout.
func (e *AgentError) Is(target error) bool {
	switch target {
	case ErrAgentUnavailable:
		return e.Code == CodeAgentUnavailable
	case ErrAgentTimeout:
		return e.Code == CodeAgentTimeout
	case ErrAgentProtocol:
		return e.Code == CodeAgentProtocol
	}
	return false
}

// NewAgentError builds an AgentError without a cause.
func NewAgentError(code ErrorCode, op, message string) *AgentError {
	return &AgentError{Code: code, Op: op, Message: message}
}

// ClassifyError inspects an error and returns an *AgentError with the
// appropriate code. An error that already is an AgentError is returned
// as-is. Errors matching no known pattern get CodeInternal.
func ClassifyError(err error, op string) *AgentError {
	if err == nil {
		return nil
	}

	var existing *AgentError
	if errors.As(err, &existing) {
		return existing
	}

	ae := &AgentError{
		Op:    op,
		Cause: err,
	}

	// Check for context deadline exceeded (timeout)
	if errors.Is(err, context.DeadlineExceeded) {
		ae.Code = CodeAgentTimeout
		ae.Message = "operation timed out"
		return ae
	}

	// Check for context cancelled
	if errors.Is(err, context.Canceled) {
		ae.Code = CodeCancelled
		ae.Message = "operation cancelled"
		return ae
	}

	// Agent binary missing
	if errors.Is(err, exec.ErrNotFound) {
		ae.Code = CodeAgentUnavailable
		ae.Message = err.Error()
		return ae
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	// Rate limit patterns
	if strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests") || strings.Contains(lower, "quota exceeded") {
		ae.Code = CodeRateLimit
		ae.Message = msg
		return ae
	}

	// Framing and protocol patterns
	if strings.Contains(lower, "invalid character") || strings.Contains(lower, "unmarshal") || strings.Contains(lower, "jsonrpc") || strings.Contains(lower, "unexpected end of json") || strings.Contains(lower, "method not found") {
		ae.Code = CodeAgentProtocol
		ae.Message = msg
		return ae
	}

	// Process and transport patterns
	if strings.Contains(lower, "executable file not found") || strings.Contains(lower, "no such file") || strings.Contains(lower, "broken pipe") || strings.Contains(lower, "connection refused") || strings.Contains(lower, "transport") || strings.Contains(lower, "eof") {
		ae.Code = CodeAgentUnavailable
		ae.Message = msg
		return ae
	}

	// Completion service patterns
	if strings.Contains(lower, "503") || strings.Contains(lower, "service unavailable") || strings.Contains(lower, "no such host") || strings.Contains(lower, "model not found") {
		ae.Code = CodeModelUnavailable
		ae.Message = msg
		return ae
	}

	ae.Code = CodeInternal
	ae.Message = msg
	return ae
}

// CodeOf returns the code of the AgentError in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsErrorRetryable returns true if the error is likely transient and worth retrying.
// This function checks the error code using the ErrorCodeRegistry.
func IsErrorRetryable(err error) bool {
	var ae *AgentError
	if errors.As(err, &ae) {
		if info, ok := ErrorCodeRegistry[ae.Code]; ok {
			return info.Retryable
		}
		// Default to non-retryable for unknown codes
		return false
	}
	return false
}
