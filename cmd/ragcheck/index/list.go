package indexcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	"github.com/quarrylabs/ragcheck/pkg/logger"
)

type listCommander struct {
	cfg   *config.Config
	debug bool
}

var listFlags = []string{
	config.FlagIndexProvider,
	config.FlagIndexTarget,
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexes on the configured backend",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initConfig(cmd, fs, listFlags)
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

	for _, key := range listFlags {
		config.AddStringFlag(cmd, fs, key, new(string))
	}

	return cmd
}

func (c *listCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	provider, err := newProvider(c.cfg, log)
	if err != nil {
		return err
	}
	defer provider.Close()

	names, err := provider.ListIndexes(context.Background())
	if err != nil {
		return fmt.Errorf("listing indexes: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No indexes found.")
		return nil
	}

	for _, name := range names {
		fmt.Printf("  %s\n", cliui.ValueStyle.Render(name))
	}
	return nil
}
