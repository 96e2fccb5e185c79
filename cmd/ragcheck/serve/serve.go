// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/api"
	"github.com/quarrylabs/ragcheck/pkg/config"
	embeddingutils "github.com/quarrylabs/ragcheck/pkg/embeddings/utils"
	indexutils "github.com/quarrylabs/ragcheck/pkg/index/utils"
	llmutils "github.com/quarrylabs/ragcheck/pkg/llm/utils"
	"github.com/quarrylabs/ragcheck/pkg/logger"
	"github.com/quarrylabs/ragcheck/pkg/rag"
)

type serveCommander struct {
	cfg   *config.Config
	debug bool

	logger *zap.Logger
}

const serveLongDesc string = `Run the ragcheck API server.

The server exposes the retrieval pipeline over HTTP:
  GET  /ping        liveness check
  GET  /v1/search   nearest-neighbor search for a query string
  POST /v1/ask      retrieval-augmented answer for a question
  GET  /v1/stats    index statistics

Examples:
  ragcheck serve
  ragcheck serve --api-listen :9000 --index-provider sqlite`

const serveShortDesc string = "Run the ragcheck API server"

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagIndexProvider,
	config.FlagIndexTarget,
	config.FlagIndexName,
	config.FlagIndexNamespace,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagCompletionProv,
	config.FlagCompletionTgt,
	config.FlagCompletionModel,
	config.FlagTopK,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, fs, serveFlags)
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

	for _, key := range serveFlags {
		switch fs[key].ViperKey {
		case "embedding.dimensions", "smoke.top_k":
			config.AddUintFlag(cmd, fs, key, new(uint))
		default:
			config.AddStringFlag(cmd, fs, key, new(string))
		}
	}

	return cmd
}

func (c *serveCommander) run() error {
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

	server := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, pipeline, driver, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
