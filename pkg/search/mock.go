package search

import "context"

// MockClient is a configurable mock for testing MarketValidator.
type MockClient struct {
	// SearchFunc is called when Search is invoked. If nil, returns no
	// results and nil error.
	SearchFunc func(ctx context.Context, query string, limit int) ([]Result, error)

	SearchCalls int
	LastQuery   string
}

var _ Client = (*MockClient)(nil)

// Search implements Client.
func (m *MockClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	m.SearchCalls++
	m.LastQuery = query
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}
