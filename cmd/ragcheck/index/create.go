package indexcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/logger"
)

type createCommander struct {
	cfg   *config.Config
	debug bool
}

var createFlags = []string{
	config.FlagIndexProvider,
	config.FlagIndexTarget,
	config.FlagIndexName,
	config.FlagIndexMetric,
	config.FlagIndexCloud,
	config.FlagIndexRegion,
	config.FlagEmbeddingDims,
}

func newCreateCmd() *cobra.Command {
	cmder := &createCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a vector index",
		Long: `Create a vector index on the configured backend and wait until it is ready.

Example:
  ragcheck index create
  ragcheck index create --index-name nightly-check --metric cosine`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initConfig(cmd, fs, createFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
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

	for _, key := range createFlags {
		if fs[key].ViperKey == "embedding.dimensions" {
			config.AddUintFlag(cmd, fs, key, new(uint))
			continue
		}
		config.AddStringFlag(cmd, fs, key, new(string))
	}

	return cmd
}

func (c *createCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	provider, err := newProvider(c.cfg, log)
	if err != nil {
		return err
	}
	defer provider.Close()

	ctx := context.Background()
	spec := index.Spec{
		Name:      c.cfg.Index.Name,
		Dimension: c.cfg.Embedding.Dimensions,
		Metric:    c.cfg.Index.Metric,
		Cloud:     c.cfg.Index.Cloud,
		Region:    c.cfg.Index.Region,
	}

	err = cliui.Step(os.Stdout, fmt.Sprintf("Creating index %q", spec.Name), func() error {
		if err := provider.CreateIndex(ctx, spec); err != nil {
			return err
		}
		return provider.WaitReady(ctx, spec.Name)
	})
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	fmt.Printf("\n  %s index %s ready (dimension %d, metric %s)\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(spec.Name),
		spec.Dimension,
		spec.Metric,
	)
	return nil
}
