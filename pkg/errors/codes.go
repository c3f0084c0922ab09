package errors

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeAgentUnavailable: {
		Code:            CodeAgentUnavailable,
		Retryable:       false,
		Description:     "Agent process could not be started or reached",
		SuggestedAction: "Check the agent command: meetprep config show, and that it is on PATH",
	},
	CodeAgentTimeout: {
		Code:            CodeAgentTimeout,
		Retryable:       true,
		Description:     "Agent did not answer within the time limit",
		SuggestedAction: "Retry, or raise agent.transcript_timeout in ~/.meetprep/config.yaml",
	},
	CodeAgentProtocol: {
		Code:            CodeAgentProtocol,
		Retryable:       false,
		Description:     "Agent answered with malformed framing or without an ask tool",
		SuggestedAction: "Run with --debug to inspect the agent tool list",
	},
	CodeCancelled: {
		Code:            CodeCancelled,
		Retryable:       false,
		Description:     "Operation cancelled by user or client disconnect",
		SuggestedAction: "Check if cancellation was intentional",
	},
	CodeRateLimit: {
		Code:            CodeRateLimit,
		Retryable:       true,
		Description:     "AI completion rate limit exceeded",
		SuggestedAction: "Wait and retry, or pick another model with --model",
	},
	CodeModelUnavailable: {
		Code:            CodeModelUnavailable,
		Retryable:       true,
		Description:     "AI model or completion service unavailable",
		SuggestedAction: "List available models: meetprep models",
	},
	CodeInternal: {
		Code:            CodeInternal,
		Retryable:       false,
		Description:     "Unclassified error",
		SuggestedAction: "Re-run with --debug and check the logs",
	},
}

// IsRetryable returns true if the given error code represents a transient, retryable error.
func IsRetryable(code ErrorCode) bool {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Retryable
	}
	return false
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug and check the logs"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
