// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector length this embedder
	// produces, which must match the index dimension.
	Dimensions() uint

	// Close releases any resources held by the embedder.
	Close() error
}
