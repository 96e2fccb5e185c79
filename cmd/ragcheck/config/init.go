package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
)

const initLongDesc string = `Write a preset config.toml to the .ragcheck/ directory.

Presets:
  pinecone  Hosted Pinecone index with OpenAI embeddings (default)
  qdrant    Local Qdrant at localhost:6334 with OpenAI embeddings
  local     Fully local: SQLite index with Ollama embeddings and completions

Examples:
  ragcheck config init
  ragcheck config init --preset local`

const initShortDesc string = "Write a preset config file"

func newInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runInit(preset, configDir)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "pinecone", "Preset name ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(preset, configDir string) error {
	cfg, err := config.PresetConfig(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\n  %s Wrote %s preset to %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(preset),
		cliui.ValueStyle.Render(cfger.GetTarget()),
	)
	return nil
}
