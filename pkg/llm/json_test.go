package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{
			name:     "bare object",
			response: `{"name":"meal logger"}`,
			expected: `{"name":"meal logger"}`,
		},
		{
			name:     "object wrapped in prose",
			response: "Here is the analysis:\n{\"score\": 72}\nLet me know if you need more.",
			expected: `{"score": 72}`,
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"category\":\"health\"}\n```",
			expected: `{"category":"health"}`,
		},
		{
			name:     "think tags stripped",
			response: "<think>reasoning here with { braces }</think>{\"ok\":true}",
			expected: `{"ok":true}`,
		},
		{
			name:     "nested object",
			response: `{"outer":{"inner":[1,2,3]}}`,
			expected: `{"outer":{"inner":[1,2,3]}}`,
		},
		{
			name:     "braces inside string literals",
			response: `{"note":"use {curly} braces"}`,
			expected: `{"note":"use {curly} braces"}`,
		},
		{
			name:     "array response",
			response: "Results: [\"a\",\"b\"]",
			expected: `["a","b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractJSON_Malformed(t *testing.T) {
	for _, response := range []string{"", "no json here", `{"unterminated": `} {
		_, err := ExtractJSON(response)
		require.Error(t, err, "response %q", response)

		var llmErr *Error
		require.True(t, errors.As(err, &llmErr))
		assert.Equal(t, ErrorTypeMalformed, llmErr.Type)
	}
}
