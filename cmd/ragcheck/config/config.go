// Package configcmder provides the config command for managing persistent
// ragcheck configuration stored in the .ragcheck/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent ragcheck configuration.

Configuration is stored as config.toml in the .ragcheck/ directory and provides
default values for command flags. CLI flags and RAGCHECK_* environment
variables always take precedence over config file values. API keys are never
stored in the config file; they are read from the environment only.

Keys use dotted notation matching the TOML section structure:
  index.provider, index.target, index.name, index.namespace,
  index.metric, index.cloud, index.region,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  completion.provider, completion.target, completion.model,
  trace.endpoint, api.listen, client.api_target,
  smoke.top_k, smoke.verify_delete

Use subcommands to initialize, get, set, or list configuration values:
  ragcheck config init --preset <name>  Write a preset config file
  ragcheck config set <key> <value>     Set a configuration value
  ragcheck config get <key>             Get a configuration value
  ragcheck config list                  List all configuration values

Examples:
  ragcheck config init --preset local
  ragcheck config set index.provider qdrant
  ragcheck config set embedding.model text-embedding-3-small
  ragcheck config get index.name
  ragcheck config list`

const configShortDesc string = "Manage persistent ragcheck configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
