package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProviderError
		expected string
	}{
		{
			name:     "status with message",
			err:      &ProviderError{Provider: "openai", Status: 429, Message: "rate limit exceeded"},
			expected: "openai: status 429: rate limit exceeded",
		},
		{
			name:     "status without message",
			err:      &ProviderError{Provider: "gemini", Status: 500},
			expected: "gemini: status 500",
		},
		{
			name:     "transport failure",
			err:      &ProviderError{Provider: "openai", Err: errors.New("connection refused")},
			expected: "openai: request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

// TestProviderError_Retryable pins the retry classification: only rate
// limiting, overload, and never-reached-the-server failures retry.
func TestProviderError_Retryable(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected bool
	}{
		{name: "429 rate limit retries", status: 429, expected: true},
		{name: "503 overload retries", status: 503, expected: true},
		{name: "network failure retries", status: 0, expected: true},
		{name: "400 does not retry", status: 400, expected: false},
		{name: "401 does not retry", status: 401, expected: false},
		{name: "404 does not retry", status: 404, expected: false},
		{name: "500 does not retry", status: 500, expected: false},
		{name: "502 does not retry", status: 502, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ProviderError{Provider: "test", Status: tt.status}
			if tt.status == 0 {
				err.Err = errors.New("dial tcp: timeout")
			}
			assert.Equal(t, tt.expected, err.Retryable())
		})
	}
}

func TestProviderError_Unwrap(t *testing.T) {
	t.Run("exposes transport error", func(t *testing.T) {
		underlying := errors.New("dial tcp: connection refused")
		err := &ProviderError{Provider: "openai", Err: underlying}

		assert.ErrorIs(t, err, underlying)
	})
}

func TestAsProviderError(t *testing.T) {
	t.Run("finds error in wrap chain", func(t *testing.T) {
		inner := &ProviderError{Provider: "gemini", Status: 503}
		wrapped := fmt.Errorf("embedding call: %w", inner)

		pe, ok := AsProviderError(wrapped)

		require.True(t, ok)
		assert.Equal(t, 503, pe.Status)
	})

	t.Run("plain errors do not match", func(t *testing.T) {
		_, ok := AsProviderError(errors.New("something else"))
		assert.False(t, ok)
	})

	t.Run("sentinel errors still compare with errors.Is", func(t *testing.T) {
		wrapped := fmt.Errorf("lookup: %w", ErrDocumentNotFound)
		assert.ErrorIs(t, wrapped, ErrDocumentNotFound)
	})
}
