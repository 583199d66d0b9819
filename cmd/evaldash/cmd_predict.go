package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/spinner"
	"github.com/spboyer/evaldash/internal/validation"
	"github.com/spf13/cobra"
)

func newPredictCommand(g *globalOptions) *cobra.Command {
	var (
		file       string
		schemaPath string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Send a prediction request",
		Long: `Send a prediction payload to the metrics API and print the response.

The payload is read from --file (or stdin with "-") and may be JSON or YAML.
When a schema is given with --schema or predict.schema in .evaldash.yaml, the
payload is validated before anything is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if schemaPath == "" {
				schemaPath = cfg.Predict.Schema
			}

			data, err := readPayload(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			payload, err := validation.DecodePayload(data)
			if err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			}

			schema, err := validation.LoadSchema(schemaPath)
			if err != nil {
				return err
			}
			if err := schema.Validate(payload); err != nil {
				return err
			}

			client := newClient(cfg, nil)
			body, err := spinner.While(cmd.ErrOrStderr(), "Requesting prediction", isTerminal(cmd.ErrOrStderr()),
				func() (*metricsapi.Body, error) {
					return client.Predict(cmd.Context(), payload)
				})
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), body)
		},
	}

	cmd.Flags().StringVar(&file, "file", "-", `Payload file (JSON or YAML), or "-" for stdin`)
	cmd.Flags().StringVar(&schemaPath, "schema", "", "JSON Schema file to validate the payload against")

	return cmd
}

func readPayload(stdin io.Reader, file string) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return data, nil
}
