// Package embeddingutils is the embedder factory package
package embeddingutils

import (
	"fmt"

	"github.com/quarrylabs/ragcheck/pkg/embeddings"
	"github.com/quarrylabs/ragcheck/pkg/embeddings/ollama"
	"github.com/quarrylabs/ragcheck/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	// ProviderType selects the backend: "openai" or "ollama".
	ProviderType string

	// BaseURL overrides the provider endpoint. Required for ollama
	// when the daemon is not on localhost.
	BaseURL string

	// APIKey authenticates hosted backends. Unused for ollama.
	APIKey string

	// Model is the embedding model name. Empty uses the provider default.
	Model string

	// Dimensions is the expected embedding dimension. Zero uses the
	// provider default.
	Dimensions uint
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     o.APIKey,
			Model:      o.Model,
			Dimensions: o.Dimensions,
			BaseURL:    o.BaseURL,
		})

	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.BaseURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
