// Package llm provides classified access to chat-completion endpoints for
// the enrichment services. Two providers are supported: OpenAI-compatible
// APIs and Anthropic.
package llm

import "context"

// GenerateResult is the outcome of one completion call, including the token
// usage and computed cost that enrichment results report.
type GenerateResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// Client is the completion capability injected into enrichment services.
// Implementations return *Error for failures so callers can record typed
// FAILED reasons.
type Client interface {
	// Generate produces a completion for prompt under the given system
	// message and temperature.
	Generate(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResult, error)

	// Model returns the configured model name.
	Model() string
}

// Pricing converts token usage into USD. Zero-value pricing reports zero
// cost, which keeps tests and local endpoints free.
type Pricing struct {
	InputPer1K  float64 `yaml:"input_per_1k" env:"LLM_INPUT_COST_PER_1K" env-default:"0"`
	OutputPer1K float64 `yaml:"output_per_1k" env:"LLM_OUTPUT_COST_PER_1K" env-default:"0"`
}

// Cost returns the USD cost of a call with the given token usage.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*p.InputPer1K + float64(completionTokens)/1000*p.OutputPer1K
}
