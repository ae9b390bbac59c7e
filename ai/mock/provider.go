package mock

import "github.com/samadon1/cactus-embedder/ai"

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	embedder *MockEmbedder
	model    string
	closed   bool
}

// NewMockProvider creates a mock provider with a default mock embedder.
//
// Returns the concrete type so tests can reach the embedder for
// assertions.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		model:    "mock-model",
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// MockEmbedder returns the concrete mock embedder for test assertions.
func (p *MockProvider) MockEmbedder() *MockEmbedder {
	return p.embedder
}

// Model returns the mock model identifier.
func (p *MockProvider) Model() string {
	return p.model
}

// Close records that the provider was released.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}
