package driven

import "context"

// EmbeddingService maps text to fixed-length normalised vectors.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, bge-m3)
//   - Any server exposing a compatible embeddings endpoint
type EmbeddingService interface {
	// Embed generates a normalised vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1024).
	// This must match the vector store's collection configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
