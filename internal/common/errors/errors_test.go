package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderError_Timeout(t *testing.T) {
	assert.Equal(t, ErrCodeProviderTimeout, NewProviderError("stream stalled", context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeProviderTimeout, NewProviderError("slow", stderrors.New("rpc: deadline exceeded")).Code)
	assert.Equal(t, ErrCodeProviderFailed, NewProviderError("bad status", stderrors.New("API error: 502")).Code)
	assert.Equal(t, ErrCodeProviderFailed, NewProviderError("empty", nil).Code)
}

func TestCodeOf_WalksChain(t *testing.T) {
	wrapped := fmt.Errorf("exchange: %w", NewAuthError("IAM authentication failed: 401", nil))

	assert.Equal(t, ErrCodeAuthFailed, CodeOf(wrapped))
	assert.True(t, IsAuthError(wrapped))
	assert.False(t, IsProviderError(wrapped))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
	assert.False(t, IsValidationError(nil))
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNotificationError("sns", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "NOTIFICATION_FAILED: sns notification failed (connection refused)", err.Error())
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"auth retries", NewAuthError("token", nil), 3},
		{"provider retries once", NewProviderError("bad", nil), 1},
		{"validation never retries", NewValidationError("complaint", "missing"), 0},
		{"internal never retries", NewInternalError(stderrors.New("boom")), 0},
		{"job completion retries", NewJobCompletionError(stderrors.New("unavailable")), 3},
		{"not configured is permanent", NewProviderNotConfiguredError("watsonx"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestNormalize(t *testing.T) {
	v := NewValidationError("language", "must be a string")
	assert.Same(t, v, Normalize(fmt.Errorf("parse: %w", v)))

	n := Normalize(stderrors.New("unexpected"))
	require.NotNil(t, n)
	assert.Equal(t, ErrCodeInternal, n.Code)
	assert.Equal(t, "unexpected", n.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeAuthFailed))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeProviderTimeout))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
