package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails; the caller
	// decides whether the failure is fatal.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Provider manages the lifecycle of an embedding service. It is created
// once per job, shared across every file in a batch, and closed when
// the job finishes, successfully or not.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Model returns the model identifier recorded in output metadata.
	Model() string

	// Close releases resources held by the provider. After Close the
	// provider and its embedder must not be used.
	Close() error
}
