// Package indexcmder provides commands for managing vector indexes.
package indexcmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/config"
	indexutils "github.com/quarrylabs/ragcheck/pkg/index/utils"
)

const indexLongDesc string = `Manage vector indexes.

Create, inspect, and delete indexes on the configured backend, and bulk-load
documents into one. The backend, index name, and credentials come from the
config file, environment, and flags.

Examples:
  ragcheck index create
  ragcheck index list
  ragcheck index describe test-index-rag
  ragcheck index load corpus.txt
  ragcheck index delete test-index-rag`

const indexShortDesc string = "Manage vector indexes"

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newLoadCmd())

	return cmd
}

// initConfig resolves viper for a subcommand and binds its registered flags.
func initConfig(cmd *cobra.Command, fs config.FlagSet, flags []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	config.BindRegisteredFlags(v, cmd, fs, flags)
	return config.FromViper(v), nil
}

// newProvider builds an index provider from the resolved config.
func newProvider(cfg *config.Config, logger *zap.Logger) (indexutils.Provider, error) {
	provider, err := indexutils.NewDriver(&indexutils.NewDriverOpts{
		ProviderType: cfg.Index.Provider,
		Target:       cfg.Index.Target,
		IndexName:    cfg.Index.Name,
		APIKey:       config.IndexAPIKey(cfg.Index.Provider),
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating index driver: %w", err)
	}
	return provider, nil
}
