// Package ragcheckcmder
package ragcheckcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/quarrylabs/ragcheck/cmd/ragcheck/ask"
	configcmder "github.com/quarrylabs/ragcheck/cmd/ragcheck/config"
	indexcmder "github.com/quarrylabs/ragcheck/cmd/ragcheck/index"
	querycmder "github.com/quarrylabs/ragcheck/cmd/ragcheck/query"
	servecmder "github.com/quarrylabs/ragcheck/cmd/ragcheck/serve"
	smokecmder "github.com/quarrylabs/ragcheck/cmd/ragcheck/smoke"
	versioncmder "github.com/quarrylabs/ragcheck/cmd/version"
)

const ragcheckLongDesc string = `Ragcheck exercises a retrieval-augmented generation stack end to end.

Run the full smoke check against a live vector index:
  ragcheck smoke

Manage indexes and query them directly:
  ragcheck index create|list|describe|delete|load
  ragcheck query "some question"
  ragcheck ask "some question"

Run the HTTP API server:
  ragcheck serve`

const ragcheckShortDesc string = "Ragcheck - RAG pipeline smoke checks"

func NewRagcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragcheck",
		Short: ragcheckShortDesc,
		Long:  ragcheckLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .ragcheck/ config directory")

	// Add subcommands
	cmd.AddCommand(smokecmder.NewSmokeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
