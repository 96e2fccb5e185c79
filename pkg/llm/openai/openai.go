// Package openai implements pkg/llm's Completer client for OpenAI's chat
// completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/quarrylabs/ragcheck/pkg/llm"
)

// DefaultModel is the default chat completion model.
const DefaultModel = "gpt-4o-mini"

// Completer wraps OpenAI's chat completions API.
type Completer struct {
	client openai.Client
	model  string
}

// CompleterConfig holds configuration for the OpenAI completer.
type CompleterConfig struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// Model is the chat model to use.
	// Defaults to DefaultModel if empty.
	Model string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// NewCompleter creates a new completer using OpenAI's chat completions API.
func NewCompleter(cfg CompleterConfig) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Completer{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends the prompts to the model and returns the assistant's reply.
func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai chat request: %v", llm.ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", llm.ErrCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name completions are generated with.
func (c *Completer) Model() string {
	return c.model
}

// Close releases resources held by the completer.
func (c *Completer) Close() error {
	// SDK client doesn't require explicit cleanup
	return nil
}

// Ensure Completer implements llm.Completer
var _ llm.Completer = (*Completer)(nil)
