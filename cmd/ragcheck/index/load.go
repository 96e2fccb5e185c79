package indexcmder

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	embeddingutils "github.com/quarrylabs/ragcheck/pkg/embeddings/utils"
	"github.com/quarrylabs/ragcheck/pkg/logger"
	"github.com/quarrylabs/ragcheck/pkg/rag"
)

type loadCommander struct {
	cfg      *config.Config
	path     string
	idPrefix string
	workers  uint
	debug    bool
}

var loadFlags = []string{
	config.FlagIndexProvider,
	config.FlagIndexTarget,
	config.FlagIndexName,
	config.FlagIndexNamespace,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

func newLoadCmd() *cobra.Command {
	cmder := &loadCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Bulk-load documents into an index",
		Long: `Bulk-load documents into an index from a file.

Each non-empty line of the file becomes one document: the line text is
embedded and upserted with an ID of the form <prefix><line-number>.
Documents are processed concurrently by a worker pool; per-document
failures are logged and skipped.

Example:
  ragcheck index load corpus.txt
  ragcheck index load corpus.txt --id-prefix sotu --workers 8`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initConfig(cmd, fs, loadFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.path = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.idPrefix, "id-prefix", "doc", "Document ID prefix")
	cmd.Flags().UintVar(&cmder.workers, "workers", 3, "Number of concurrent ingest workers")
	for _, key := range loadFlags {
		if fs[key].ViperKey == "embedding.dimensions" {
			config.AddUintFlag(cmd, fs, key, new(uint))
			continue
		}
		config.AddStringFlag(cmd, fs, key, new(string))
	}

	return cmd
}

func (c *loadCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	file, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.path, err)
	}
	defer file.Close()

	provider, err := newProvider(c.cfg, log)
	if err != nil {
		return err
	}
	defer provider.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.cfg.Embedding.Provider,
		BaseURL:      c.cfg.Embedding.Target,
		APIKey:       config.OpenAIAPIKey(),
		Model:        c.cfg.Embedding.Model,
		Dimensions:   c.cfg.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	pool, err := rag.NewPool(&rag.PoolConfig{
		Driver:     provider,
		Embedder:   embedder,
		Namespace:  c.cfg.Index.Namespace,
		NumWorkers: c.workers,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating ingest pool: %w", err)
	}

	var queued, dropped int
	err = cliui.Step(os.Stdout, fmt.Sprintf("Loading %s", c.path), func() error {
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

		line := 0
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			job := rag.IngestJob{
				ID:   fmt.Sprintf("%s%d", c.idPrefix, line),
				Text: text,
			}
			if pool.Enqueue(job) {
				queued++
			} else {
				dropped++
			}
			line++
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading %s: %w", c.path, err)
		}

		pool.Close()
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s queued %d documents into %s",
		cliui.SuccessMark,
		queued,
		cliui.KeyStyle.Render(c.cfg.Index.Name),
	)
	if dropped > 0 {
		fmt.Printf(" %s", cliui.DimStyle.Render(fmt.Sprintf("(%d dropped, queue full)", dropped)))
	}
	fmt.Println()

	return nil
}
