package llm

import "context"

// MockClient is a configurable mock for testing enrichment services.
// Set GenerateFunc to control behavior; calls are counted for verification.
type MockClient struct {
	// GenerateFunc is called when Generate is invoked. If nil, an empty
	// result and nil error are returned.
	GenerateFunc func(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResult, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	GenerateCalls int
	LastPrompt    string
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock with defaults.
func NewMockClient() *MockClient {
	return &MockClient{ModelName: "mock-model"}
}

// Generate implements Client.
func (m *MockClient) Generate(ctx context.Context, prompt, systemMessage string, temperature float64) (*GenerateResult, error) {
	m.GenerateCalls++
	m.LastPrompt = prompt
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResult{}, nil
}

// Model implements Client.
func (m *MockClient) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}
