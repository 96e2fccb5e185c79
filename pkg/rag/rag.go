// Package rag wires an embedder, an index driver, and a completer into the
// retrieval pipeline: documents go in as embeddings, questions come back
// answered from the nearest matches.
package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/embeddings"
	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/llm"
)

// DefaultTopK is the number of matches retrieved per query.
const DefaultTopK = 2

// Pipeline runs retrieval-augmented generation against a vector index.
type Pipeline struct {
	embedder  embeddings.Embedder
	driver    index.Driver
	completer llm.Completer
	namespace string
	topK      uint
	logger    *zap.Logger
}

// Config holds the pipeline's dependencies.
type Config struct {
	// Embedder converts text to vectors. Required.
	Embedder embeddings.Embedder

	// Driver is the vector index data plane. Required.
	Driver index.Driver

	// Completer generates answers. Required for Answer, optional for
	// Retrieve and Ingest.
	Completer llm.Completer

	// Namespace scopes all index operations.
	Namespace string

	// TopK is the number of matches retrieved per query.
	// Defaults to DefaultTopK if zero.
	TopK uint

	Logger *zap.Logger
}

// Answer is the result of a full retrieve-and-generate round trip.
type Answer struct {
	Query    string        `json:"query"`
	Text     string        `json:"text"`
	Contexts []string      `json:"contexts"`
	Matches  []index.Match `json:"matches"`
}

// NewPipeline creates a pipeline from the given dependencies.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.Driver == nil {
		return nil, fmt.Errorf("index driver is required")
	}

	topK := cfg.TopK
	if topK == 0 {
		topK = DefaultTopK
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		embedder:  cfg.Embedder,
		driver:    cfg.Driver,
		completer: cfg.Completer,
		namespace: cfg.Namespace,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Retrieve embeds the query and returns the nearest matches from the index.
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]index.Match, error) {
	return p.RetrieveN(ctx, query, int(p.topK))
}

// RetrieveN is Retrieve with an explicit match count, for callers that
// override the configured top-K per request. Non-positive counts fall back
// to the configured value.
func (p *Pipeline) RetrieveN(ctx context.Context, query string, topK int) ([]index.Match, error) {
	if topK <= 0 {
		topK = int(p.topK)
	}

	embedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := p.driver.Query(ctx, p.namespace, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	p.logger.Debug("retrieved matches",
		zap.String("query", query),
		zap.Int("count", len(matches)),
	)

	return matches, nil
}

// Ask retrieves context for the query and generates an answer from it.
func (p *Pipeline) Ask(ctx context.Context, query string) (*Answer, error) {
	if p.completer == nil {
		return nil, fmt.Errorf("completer is required for answering")
	}

	matches, err := p.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	contexts := ContextsFromMatches(matches)

	text, err := p.completer.Complete(ctx, SystemPrompt, BuildPrompt(query, contexts))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	p.logger.Debug("generated answer",
		zap.String("query", query),
		zap.String("model", p.completer.Model()),
		zap.Int("context_count", len(contexts)),
	)

	return &Answer{
		Query:    query,
		Text:     text,
		Contexts: contexts,
		Matches:  matches,
	}, nil
}

// Ingest embeds each text and upserts it into the namespace. IDs are
// assigned sequentially from idPrefix ("doc0", "doc1", ...) and the source
// text is stored in metadata under "text".
func (p *Pipeline) Ingest(ctx context.Context, idPrefix string, texts []string) error {
	docs := make([]index.Document, 0, len(texts))

	for i, text := range texts {
		embedding, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embedding document %d: %w", i, err)
		}

		docs = append(docs, index.Document{
			ID:       fmt.Sprintf("%s%d", idPrefix, i),
			Values:   embedding,
			Metadata: map[string]any{"text": text},
		})
	}

	if err := p.driver.Upsert(ctx, p.namespace, docs); err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}

	p.logger.Debug("ingested documents",
		zap.String("namespace", p.namespace),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Namespace returns the namespace the pipeline operates in.
func (p *Pipeline) Namespace() string {
	return p.namespace
}

// TopK returns the number of matches retrieved per query.
func (p *Pipeline) TopK() uint {
	return p.topK
}

// ContextsFromMatches extracts the "text" metadata field from each match,
// skipping matches without one.
func ContextsFromMatches(matches []index.Match) []string {
	contexts := make([]string, 0, len(matches))
	for _, match := range matches {
		if text, ok := match.Metadata["text"].(string); ok {
			contexts = append(contexts, text)
		}
	}
	return contexts
}
