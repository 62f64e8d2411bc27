package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{
			name:          "rate limit is quota and permanent",
			err:           errors.New("error, status code: 429, message: Rate limit reached"),
			wantType:      ErrorTypeQuota,
			wantRetryable: false,
		},
		{
			name:          "auth failure",
			err:           errors.New("error, status code: 401, message: invalid api key"),
			wantType:      ErrorTypeAuth,
			wantRetryable: false,
		},
		{
			name:          "deadline exceeded",
			err:           context.DeadlineExceeded,
			wantType:      ErrorTypeTimeout,
			wantRetryable: true,
		},
		{
			name:          "server error is retryable",
			err:           errors.New("error, status code: 503, message: overloaded"),
			wantType:      ErrorTypeEndpoint,
			wantRetryable: true,
		},
		{
			name:          "json decode failure",
			err:           errors.New("unexpected end of JSON input"),
			wantType:      ErrorTypeMalformed,
			wantRetryable: false,
		},
		{
			name:          "unrecognized",
			err:           errors.New("something odd"),
			wantType:      ErrorTypeUnknown,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantRetryable, got.IsRetryable())
		})
	}
}

func TestClassifyError_PassesThroughClassified(t *testing.T) {
	orig := NewError(ErrorTypeQuota, "quota exceeded", false, nil)
	wrapped := fmt.Errorf("stage failed: %w", orig)
	assert.Same(t, orig, ClassifyError(wrapped))
	assert.Nil(t, ClassifyError(nil))
}

func TestError_Message(t *testing.T) {
	e := NewError(ErrorTypeTimeout, "request timed out", true, errors.New("i/o timeout"))
	e.StatusCode = 504
	e.Model = "gpt-4o-mini"
	msg := e.Error()
	assert.Contains(t, msg, "timeout")
	assert.Contains(t, msg, "HTTP 504")
	assert.Contains(t, msg, "model=gpt-4o-mini")
	assert.Contains(t, msg, "i/o timeout")
}
