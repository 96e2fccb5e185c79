// Package askcmder provides the ask command for retrieval-augmented answers.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/api"
	"github.com/quarrylabs/ragcheck/pkg/cliui"
	"github.com/quarrylabs/ragcheck/pkg/config"
	"github.com/quarrylabs/ragcheck/pkg/logger"
	"github.com/quarrylabs/ragcheck/pkg/utils"
)

type askCommander struct {
	query string
	plain bool

	apiTarget string

	debug  bool
	logger *zap.Logger
}

const askLongDesc string = `Ask a question through the retrieval pipeline via the ragcheck API.

Retrieves the most relevant stored documents for the question, then generates
an answer grounded in that context. Requires a running ragcheck API server
(ragcheck serve).

Example:
  ragcheck ask "What did the president say about Ketanji Brown Jackson?"
  ragcheck ask "What about the economy?" --api-target http://localhost:8081
  ragcheck ask "What about the economy?" --plain`

const askShortDesc string = "Ask a question through the retrieval pipeline"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the raw answer without markdown rendering")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Ragcheck API server URL")

	return cmd
}

func (c *askCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	output, err := AskAPI(c.apiTarget, c.query)
	if err != nil {
		return err
	}

	if c.plain {
		fmt.Println(output.Answer)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(output.Answer)
	if err != nil {
		c.logger.Debug("markdown rendering failed, using raw answer", zap.Error(err))
		rendered = output.Answer
	}
	fmt.Print(rendered)

	if len(output.Contexts) > 0 {
		fmt.Printf("  %s\n", cliui.DimStyle.Render(fmt.Sprintf("(%d context passages)", len(output.Contexts))))
		for _, passage := range output.Contexts {
			preview := strings.ReplaceAll(passage, "\n", " ")
			fmt.Printf("  %s\n", cliui.DimStyle.Render("- "+utils.Truncate(preview, 80)))
		}
	}

	return nil
}

// AskAPI posts the question to the ragcheck API and returns the parsed answer.
func AskAPI(apiTarget, query string) (*api.AskResponse, error) {
	askURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	askURL.Path = "/v1/ask"

	payload, err := json.Marshal(api.AskRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("encoding ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, askURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ragcheck API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ask request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.AskResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse ask response: %w", err)
	}

	return &output, nil
}
