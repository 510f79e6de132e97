package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_Auth(t *testing.T) {
	err := ClassifyError(errors.New("status 401 Unauthorized: invalid api key"))
	assert.Equal(t, ErrorTypeAuth, err.Type)
	assert.False(t, err.Retryable)
	assert.Equal(t, 401, err.StatusCode)
}

func TestClassifyError_Overloaded(t *testing.T) {
	tests := []string{
		"POST failed: 503 Service Unavailable",
		"model is overloaded, try again later",
		"429 rate limit exceeded",
	}
	for _, msg := range tests {
		t.Run(msg, func(t *testing.T) {
			err := ClassifyError(errors.New(msg))
			assert.Equal(t, ErrorTypeOverloaded, err.Type)
			assert.True(t, err.Retryable)
		})
	}
}

func TestClassifyError_Timeout(t *testing.T) {
	err := ClassifyError(errors.New("context deadline exceeded"))
	assert.Equal(t, ErrorTypeTimeout, err.Type)
	assert.True(t, err.Retryable)
}

func TestClassifyError_Endpoint(t *testing.T) {
	err := ClassifyError(errors.New("dial tcp: connection refused"))
	assert.Equal(t, ErrorTypeEndpoint, err.Type)
}

func TestClassifyError_Server(t *testing.T) {
	err := ClassifyError(errors.New("unexpected status 502 Bad Gateway"))
	assert.Equal(t, ErrorTypeServer, err.Type)
	assert.True(t, err.Retryable)
}

func TestClassifyError_Unknown(t *testing.T) {
	err := ClassifyError(errors.New("something odd happened"))
	assert.Equal(t, ErrorTypeUnknown, err.Type)
	assert.False(t, err.Retryable)
}

func TestClassifyError_PreservesStructuredError(t *testing.T) {
	orig := NewError(ErrorTypeAuth, "authentication failed", false, nil)
	wrapped := fmt.Errorf("call failed: %w", orig)
	assert.Same(t, orig, ClassifyError(wrapped))
}

func TestGetErrorType(t *testing.T) {
	err := NewError(ErrorTypeOverloaded, "service overloaded", true, nil)
	assert.Equal(t, ErrorTypeOverloaded, GetErrorType(fmt.Errorf("wrap: %w", err)))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(ErrorTypeTimeout, "request timeout", true, nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := NewError(ErrorTypeAuth, "authentication failed", false, errors.New("401"))
	err.StatusCode = 401
	s := err.Error()
	assert.Contains(t, s, "auth")
	assert.Contains(t, s, "HTTP 401")
	assert.Contains(t, s, "authentication failed")
}
