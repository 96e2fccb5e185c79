package indexcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	"github.com/quarrylabs/ragcheck/pkg/logger"
)

type describeCommander struct {
	cfg   *config.Config
	name  string
	stats bool
	debug bool
}

var describeFlags = []string{
	config.FlagIndexProvider,
	config.FlagIndexTarget,
}

func newDescribeCmd() *cobra.Command {
	cmder := &describeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "describe [name]",
		Short: "Describe an index",
		Long: `Describe an index's status. Defaults to the configured index name.

Use --stats to also print vector counts per namespace.

Example:
  ragcheck index describe
  ragcheck index describe test-index-rag --stats`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initConfig(cmd, fs, describeFlags)
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

	cmd.Flags().BoolVar(&cmder.stats, "stats", false, "Also print vector counts")
	for _, key := range describeFlags {
		config.AddStringFlag(cmd, fs, key, new(string))
	}

	return cmd
}

func (c *describeCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer func() { _ = log.Sync() }()

	// The provider's data plane is bound to the named index.
	c.cfg.Index.Name = c.name

	provider, err := newProvider(c.cfg, log)
	if err != nil {
		return err
	}
	defer provider.Close()

	ctx := context.Background()

	status, err := provider.DescribeIndex(ctx, c.name)
	if err != nil {
		return fmt.Errorf("describing index %q: %w", c.name, err)
	}

	printField("Name", status.Name)
	printField("Dimension", fmt.Sprintf("%d", status.Dimension))
	printField("Ready", fmt.Sprintf("%t", status.Ready))
	if status.State != "" {
		printField("State", status.State)
	}
	if status.Host != "" {
		printField("Host", status.Host)
	}

	if !c.stats {
		return nil
	}

	stats, err := provider.Stats(ctx)
	if err != nil {
		return fmt.Errorf("fetching index stats: %w", err)
	}

	printField("Vectors", fmt.Sprintf("%d", stats.TotalCount))
	for ns, count := range stats.Namespaces {
		fmt.Printf("    %s %s\n",
			cliui.DimStyle.Render(ns+":"),
			cliui.ValueStyle.Render(fmt.Sprintf("%d", count)),
		)
	}
	return nil
}

func printField(key, value string) {
	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render(key+":"),
		cliui.ValueStyle.Render(value),
	)
}
