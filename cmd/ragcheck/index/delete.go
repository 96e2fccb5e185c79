package indexcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	"github.com/quarrylabs/ragcheck/pkg/logger"
)

type deleteCommander struct {
	cfg   *config.Config
	name  string
	debug bool
}

var deleteFlags = []string{
	config.FlagIndexProvider,
	config.FlagIndexTarget,
}

func newDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete an index and all of its vectors",
		Long: `Delete an index and all of its vectors. Defaults to the configured index name.

Example:
  ragcheck index delete
  ragcheck index delete test-index-rag`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initConfig(cmd, fs, deleteFlags)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.name = cmder.cfg.Index.Name
			if len(args) == 1 {
				cmder.name = args[0]
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	for _, key := range deleteFlags {
		config.AddStringFlag(cmd, fs, key, new(string))
	}

	return cmd
}

func (c *deleteCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	c.cfg.Index.Name = c.name

	provider, err := newProvider(c.cfg, log)
	if err != nil {
		return err
	}
	defer provider.Close()

	err = cliui.Step(os.Stdout, fmt.Sprintf("Deleting index %q", c.name), func() error {
		return provider.DeleteIndex(context.Background(), c.name)
	})
	if err != nil {
		return fmt.Errorf("deleting index %q: %w", c.name, err)
	}

	return nil
}
