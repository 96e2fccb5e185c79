// Package smoke runs an end-to-end check of the retrieval pipeline against
// a live index: create a fresh index, ingest a known corpus, exercise the
// data plane, answer a fixed set of queries, and clean up. The run's
// verdict is reported to a session tracer.
package smoke

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/rag"
	"github.com/quarrylabs/ragcheck/pkg/trace"
)

const (
	// DefaultIndexName is the scratch index the smoke run creates and
	// deletes.
	DefaultIndexName = "test-index-rag"

	// DefaultNamespace scopes the smoke run's vectors.
	DefaultNamespace = "test-namespace"

	defaultDeleteSettle = 2 * time.Second
	defaultCreateSettle = 5 * time.Second
	defaultIngestSettle = 5 * time.Second
	defaultQueryPacing  = 1 * time.Second
)

// Config holds the smoke runner's dependencies and tuning knobs.
type Config struct {
	// Lifecycle manages index creation and deletion. Required.
	Lifecycle index.Lifecycle

	// Driver is the index data plane. Required.
	Driver index.Driver

	// Pipeline embeds, retrieves, and answers. Required.
	Pipeline *rag.Pipeline

	// Tracer receives the session verdict. Defaults to a no-op tracer.
	Tracer trace.Tracer

	// IndexName is the scratch index name. Defaults to DefaultIndexName.
	IndexName string

	// Dimension is the embedding dimension for index creation.
	Dimension uint

	// Metric, Cloud, and Region parameterize hosted index creation.
	Metric string
	Cloud  string
	Region string

	// Settle delays let hosted backends catch up between phases. Each
	// defaults when zero; tests set them to a millisecond.
	DeleteSettle time.Duration
	CreateSettle time.Duration
	IngestSettle time.Duration
	QueryPacing  time.Duration

	// VerifyDelete re-describes the index after cleanup and requires the
	// lookup to fail.
	VerifyDelete bool

	// Out receives step progress and query output.
	Out io.Writer

	Logger *zap.Logger
}

// Result is the outcome of a smoke run.
type Result struct {
	State   trace.State
	Answers []rag.Answer
}

// Runner executes the smoke phases in order.
type Runner struct {
	config *Config
	logger *zap.Logger
}

// NewRunner validates the config and applies defaults.
func NewRunner(c *Config) (*Runner, error) {
	if c.Lifecycle == nil {
		return nil, fmt.Errorf("index lifecycle is required")
	}
	if c.Driver == nil {
		return nil, fmt.Errorf("index driver is required")
	}
	if c.Pipeline == nil {
		return nil, fmt.Errorf("rag pipeline is required")
	}

	if c.Tracer == nil {
		c.Tracer = trace.NewNoop()
	}
	if c.IndexName == "" {
		c.IndexName = DefaultIndexName
	}
	if c.Out == nil {
		c.Out = io.Discard
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	if c.DeleteSettle == 0 {
		c.DeleteSettle = defaultDeleteSettle
	}
	if c.CreateSettle == 0 {
		c.CreateSettle = defaultCreateSettle
	}
	if c.IngestSettle == 0 {
		c.IngestSettle = defaultIngestSettle
	}
	if c.QueryPacing == 0 {
		c.QueryPacing = defaultQueryPacing
	}

	return &Runner{config: c, logger: c.Logger}, nil
}

// Run executes all phases and reports the verdict to the tracer. The
// returned error is the first fatal phase error, already reflected in the
// result state.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.trace(ctx, func() error {
		return r.config.Tracer.Start(ctx, []string{"pinecone-rag-test"})
	})

	result := &Result{State: trace.StateSuccess}

	err := r.run(ctx, result)
	if err != nil {
		result.State = trace.StateFail
		r.logger.Error("smoke run failed", zap.Error(err))
	}

	r.trace(ctx, func() error {
		return r.config.Tracer.End(ctx, result.State)
	})

	return result, err
}

func (r *Runner) run(ctx context.Context, result *Result) error {
	if err := r.freshIndex(ctx); err != nil {
		return err
	}

	if err := r.ingest(ctx); err != nil {
		return err
	}

	// Data-plane errors are reported but never abort the run.
	r.dataPlaneChecks(ctx)

	if err := r.queries(ctx, result); err != nil {
		return err
	}

	return r.cleanup(ctx)
}

// freshIndex deletes any existing index of the same name and creates a new
// one, waiting for it to report ready.
func (r *Runner) freshIndex(ctx context.Context) error {
	name := r.config.IndexName

	err := cliui.Step(r.config.Out, fmt.Sprintf("preparing fresh index %q", name), func() error {
		names, err := r.config.Lifecycle.ListIndexes(ctx)
		if err != nil {
			return fmt.Errorf("listing indexes: %w", err)
		}
		r.logger.Debug("listed indexes", zap.Strings("indexes", names))

		for _, existing := range names {
			if existing != name {
				continue
			}
			if err := r.config.Lifecycle.DeleteIndex(ctx, name); err != nil {
				return fmt.Errorf("deleting existing index: %w", err)
			}
			r.sleep(ctx, r.config.DeleteSettle)
			break
		}

		return r.config.Lifecycle.CreateIndex(ctx, index.Spec{
			Name:      name,
			Dimension: r.config.Dimension,
			Metric:    r.config.Metric,
			Cloud:     r.config.Cloud,
			Region:    r.config.Region,
		})
	})
	if err != nil {
		return err
	}
	r.record(ctx, "index-created", map[string]any{"index": name})

	err = cliui.Step(r.config.Out, "waiting for index to be ready", func() error {
		if err := r.config.Lifecycle.WaitReady(ctx, name); err != nil {
			return err
		}
		r.sleep(ctx, r.config.CreateSettle)
		return nil
	})
	if err != nil {
		return err
	}
	r.record(ctx, "index-ready", nil)

	return nil
}

// ingest embeds the sample corpus and upserts it, then waits for the
// backend to index the vectors.
func (r *Runner) ingest(ctx context.Context) error {
	err := cliui.Step(r.config.Out, fmt.Sprintf("indexing %d documents", len(SampleTexts)), func() error {
		if err := r.config.Pipeline.Ingest(ctx, "doc", SampleTexts); err != nil {
			return err
		}
		r.sleep(ctx, r.config.IngestSettle)
		return nil
	})
	if err != nil {
		return err
	}
	r.record(ctx, "documents-indexed", map[string]any{"count": len(SampleTexts)})

	return nil
}

// dataPlaneChecks exercises list, stats, fetch, and update. Failures here
// are logged and reported as step failures but never abort the run.
func (r *Runner) dataPlaneChecks(ctx context.Context) {
	namespace := r.config.Pipeline.Namespace()

	var ids []string
	_ = cliui.Step(r.config.Out, "listing vector IDs", func() error {
		var err error
		ids, err = r.config.Driver.List(ctx, namespace)
		if err != nil {
			r.logger.Warn("list vectors failed", zap.Error(err))
			return err
		}
		r.logger.Debug("listed vectors", zap.Strings("ids", ids))
		return nil
	})

	_ = cliui.Step(r.config.Out, "checking index stats", func() error {
		stats, err := r.config.Driver.Stats(ctx)
		if err != nil {
			r.logger.Warn("index stats failed", zap.Error(err))
			return err
		}
		if stats.TotalCount < uint64(len(SampleTexts)) {
			r.logger.Warn("index reports fewer vectors than ingested",
				zap.Uint64("total", stats.TotalCount),
				zap.Int("expected", len(SampleTexts)),
			)
		}
		r.logger.Debug("index stats",
			zap.Uint64("total", stats.TotalCount),
			zap.Uint("dimension", stats.Dimension),
		)
		return nil
	})

	if len(ids) > 0 {
		_ = cliui.Step(r.config.Out, "fetching vectors", func() error {
			fetchIDs := ids
			if len(fetchIDs) > 2 {
				fetchIDs = fetchIDs[:2]
			}
			docs, err := r.config.Driver.Fetch(ctx, namespace, fetchIDs)
			if err != nil {
				r.logger.Warn("fetch vectors failed", zap.Error(err))
				return err
			}
			r.logger.Debug("fetched vectors", zap.Int("count", len(docs)))
			return nil
		})

		_ = cliui.Step(r.config.Out, "updating a vector", func() error {
			values := randomVector(r.config.Dimension)
			if err := r.config.Driver.Update(ctx, namespace, ids[0], values); err != nil {
				r.logger.Warn("update vector failed", zap.Error(err))
				return err
			}
			return nil
		})
	}

	r.record(ctx, "data-plane-checked", map[string]any{"ids": len(ids)})
}

// queries runs each test query through the full pipeline with pacing
// between requests.
func (r *Runner) queries(ctx context.Context, result *Result) error {
	for i, query := range TestQueries {
		answer, err := r.config.Pipeline.Ask(ctx, query)
		if err != nil {
			return fmt.Errorf("query %q: %w", query, err)
		}

		result.Answers = append(result.Answers, *answer)
		r.printAnswer(answer)
		r.record(ctx, "query-answered", map[string]any{
			"query":   query,
			"matches": len(answer.Matches),
		})

		if i < len(TestQueries)-1 {
			r.sleep(ctx, r.config.QueryPacing)
		}
	}

	return nil
}

// cleanup deletes the scratch index and optionally verifies it is gone.
func (r *Runner) cleanup(ctx context.Context) error {
	name := r.config.IndexName

	err := cliui.Step(r.config.Out, fmt.Sprintf("deleting index %q", name), func() error {
		return r.config.Lifecycle.DeleteIndex(ctx, name)
	})
	if err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	r.record(ctx, "index-deleted", map[string]any{"index": name})

	if r.config.VerifyDelete {
		err := cliui.Step(r.config.Out, "verifying index is gone", func() error {
			if _, err := r.config.Lifecycle.DescribeIndex(ctx, name); err == nil {
				return fmt.Errorf("index %q still describable after delete", name)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) printAnswer(answer *rag.Answer) {
	fmt.Fprintf(r.config.Out, "\nQ: %s\n", answer.Query)
	for _, match := range answer.Matches {
		fmt.Fprintf(r.config.Out, "  %.4f  %s\n", match.Score, match.ID)
	}
	fmt.Fprintf(r.config.Out, "A: %s\n", answer.Text)
}

// record sends a trace event, logging failures at warn.
func (r *Runner) record(ctx context.Context, name string, metadata map[string]any) {
	r.trace(ctx, func() error {
		return r.config.Tracer.Record(ctx, trace.Event{Name: name, Metadata: metadata})
	})
}

func (r *Runner) trace(ctx context.Context, fn func() error) {
	if err := fn(); err != nil {
		r.logger.Warn("trace reporting failed", zap.Error(err))
	}
}

// sleep waits for the given settle duration or until the context ends.
func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// randomVector generates a uniform random vector of the given dimension,
// used to exercise the update path.
func randomVector(dimension uint) []float32 {
	values := make([]float32, dimension)
	for i := range values {
		values[i] = rand.Float32()
	}
	return values
}
