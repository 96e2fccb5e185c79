// Package smokecmder provides the smoke command that runs the end-to-end
// retrieval pipeline check.
package smokecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	embeddingutils "github.com/quarrylabs/ragcheck/pkg/embeddings/utils"
	indexutils "github.com/quarrylabs/ragcheck/pkg/index/utils"
	llmutils "github.com/quarrylabs/ragcheck/pkg/llm/utils"
	"github.com/quarrylabs/ragcheck/pkg/logger"
	"github.com/quarrylabs/ragcheck/pkg/rag"
	"github.com/quarrylabs/ragcheck/pkg/smoke"
	"github.com/quarrylabs/ragcheck/pkg/trace"
)

type smokeCommander struct {
	cfg   *config.Config
	debug bool

	logger *zap.Logger
}

const smokeLongDesc string = `Run the end-to-end smoke check against a live vector index.

The check creates a fresh index, embeds and ingests a built-in corpus,
exercises the data plane (list, stats, fetch, update), answers a fixed set
of queries through the retrieval pipeline, and deletes the index. The
verdict is reported to the configured tracing endpoint as Success or Fail.

API keys come from the environment: OPENAI_API_KEY, PINECONE_API_KEY,
QDRANT_API_KEY, RAGCHECK_TRACE_API_KEY. A local .env file is loaded at
startup.

Examples:
  ragcheck smoke
  ragcheck smoke --index-provider qdrant --index-target localhost:6334
  ragcheck smoke --index-name nightly-check --verify-delete`

const smokeShortDesc string = "Run the end-to-end smoke check"

// smokeFlags are the registry keys this command binds.
var smokeFlags = []string{
	config.FlagIndexProvider,
	config.FlagIndexTarget,
	config.FlagIndexName,
	config.FlagIndexNamespace,
	config.FlagIndexMetric,
	config.FlagIndexCloud,
	config.FlagIndexRegion,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagCompletionProv,
	config.FlagCompletionTgt,
	config.FlagCompletionModel,
	config.FlagTraceEndpoint,
	config.FlagTopK,
	config.FlagVerifyDelete,
}

func NewSmokeCmd() *cobra.Command {
	cmder := &smokeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: smokeShortDesc,
		Long:  smokeLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, fs, smokeFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	// Values flow through the viper binding, so the flag targets are throwaway.
	for _, key := range smokeFlags {
		switch fs[key].ViperKey {
		case "embedding.dimensions", "smoke.top_k":
			config.AddUintFlag(cmd, fs, key, new(uint))
		case "smoke.verify_delete":
			config.AddBoolFlag(cmd, fs, key, new(bool))
		default:
			config.AddStringFlag(cmd, fs, key, new(string))
		}
	}

	return cmd
}

func (c *smokeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	cfg := c.cfg

	driver, err := indexutils.NewDriver(&indexutils.NewDriverOpts{
		ProviderType: cfg.Index.Provider,
		Target:       cfg.Index.Target,
		IndexName:    cfg.Index.Name,
		APIKey:       config.IndexAPIKey(cfg.Index.Provider),
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating index driver: %w", err)
	}
	defer driver.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		BaseURL:      cfg.Embedding.Target,
		APIKey:       config.OpenAIAPIKey(),
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	completer, err := llmutils.NewCompleter(&llmutils.NewCompleterOpts{
		ProviderType: cfg.Completion.Provider,
		BaseURL:      cfg.Completion.Target,
		APIKey:       config.OpenAIAPIKey(),
		Model:        cfg.Completion.Model,
	})
	if err != nil {
		return fmt.Errorf("creating completer: %w", err)
	}
	defer completer.Close()

	tracer, err := c.newTracer()
	if err != nil {
		return err
	}

	pipeline, err := rag.NewPipeline(rag.Config{
		Embedder:  embedder,
		Driver:    driver,
		Completer: completer,
		Namespace: cfg.Index.Namespace,
		TopK:      cfg.Smoke.TopK,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	runner, err := smoke.NewRunner(&smoke.Config{
		Lifecycle:    driver,
		Driver:       driver,
		Pipeline:     pipeline,
		Tracer:       tracer,
		IndexName:    cfg.Index.Name,
		Dimension:    cfg.Embedding.Dimensions,
		Metric:       cfg.Index.Metric,
		Cloud:        cfg.Index.Cloud,
		Region:       cfg.Index.Region,
		VerifyDelete: cfg.Smoke.VerifyDelete,
		Out:          os.Stdout,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating smoke runner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		fmt.Printf("\n  %s smoke check failed: %v\n", cliui.FailMark, err)
		return err
	}

	fmt.Printf("\n  %s smoke check passed (%d queries answered)\n",
		cliui.SuccessMark, len(result.Answers))
	return nil
}

func (c *smokeCommander) newTracer() (trace.Tracer, error) {
	if c.cfg.Trace.Endpoint == "" {
		return trace.NewNoop(), nil
	}

	tracer, err := trace.NewHTTPTracer(trace.HTTPConfig{
		BaseURL: c.cfg.Trace.Endpoint,
		APIKey:  config.TraceAPIKey(),
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	c.logger.Debug("session tracing enabled",
		zap.String("endpoint", c.cfg.Trace.Endpoint),
		zap.String("session_id", tracer.SessionID()),
	)
	return tracer, nil
}
