// Package llmutils is the completer factory package
package llmutils

import (
	"fmt"

	"github.com/quarrylabs/ragcheck/pkg/llm"
	"github.com/quarrylabs/ragcheck/pkg/llm/ollama"
	"github.com/quarrylabs/ragcheck/pkg/llm/openai"
)

type NewCompleterOpts struct {
	// ProviderType selects the backend: "openai" or "ollama".
	ProviderType string

	// BaseURL overrides the provider endpoint. Required for ollama
	// when the daemon is not on localhost.
	BaseURL string

	// APIKey authenticates hosted backends. Unused for ollama.
	APIKey string

	// Model is the chat model name. Empty uses the provider default.
	Model string
}

func NewCompleter(o *NewCompleterOpts) (llm.Completer, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewCompleter(openai.CompleterConfig{
			APIKey:  o.APIKey,
			Model:   o.Model,
			BaseURL: o.BaseURL,
		})

	case "ollama":
		return ollama.NewCompleter(ollama.CompleterConfig{
			BaseURL: o.BaseURL,
			Model:   o.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", o.ProviderType)
	}
}
