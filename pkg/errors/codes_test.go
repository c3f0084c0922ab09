package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Completeness(t *testing.T) {
	// All error codes should be registered
	allCodes := []ErrorCode{
		CodeAgentUnavailable,
		CodeAgentTimeout,
		CodeAgentProtocol,
		CodeCancelled,
		CodeRateLimit,
		CodeModelUnavailable,
		CodeInternal,
	}

	for _, code := range allCodes {
		t.Run(string(code), func(t *testing.T) {
			info, ok := ErrorCodeRegistry[code]
			assert.True(t, ok, "ErrorCode %s should be in registry", code)
			assert.Equal(t, code, info.Code, "Registry entry should have matching code")
			assert.NotEmpty(t, info.Description, "Description should not be empty")
			assert.NotEmpty(t, info.SuggestedAction, "SuggestedAction should not be empty")
		})
	}
}

func TestIsRetryable_ErrorCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{CodeAgentTimeout, true},
		{CodeRateLimit, true},
		{CodeModelUnavailable, true},
		{CodeAgentUnavailable, false},
		{CodeAgentProtocol, false},
		{CodeCancelled, false},
		{CodeInternal, false},
		{ErrorCode("made_up"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.code))
		})
	}
}

func TestGetSuggestedAction_Unknown(t *testing.T) {
	assert.Equal(t, "Re-run with --debug and check the logs", GetSuggestedAction(ErrorCode("made_up")))
	assert.Contains(t, GetSuggestedAction(CodeModelUnavailable), "meetprep models")
}

func TestGetDescription(t *testing.T) {
	assert.Equal(t, "Unknown error", GetDescription(ErrorCode("made_up")))
	assert.Equal(t, "Agent did not answer within the time limit", GetDescription(CodeAgentTimeout))
}
