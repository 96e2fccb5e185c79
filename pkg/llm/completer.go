// Package llm
package llm

import "context"

// Completer produces a chat completion from a system prompt and a user
// prompt.
type Completer interface {
	// Complete sends the prompts to the model and returns the assistant's
	// reply as plain text.
	Complete(ctx context.Context, system, user string) (string, error)

	// Model returns the model name completions are generated with.
	Model() string

	// Close releases any resources held by the completer.
	Close() error
}
