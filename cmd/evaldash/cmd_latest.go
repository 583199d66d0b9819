package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/poller"
	"github.com/spboyer/evaldash/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLatestCommand(g *globalOptions) *cobra.Command {
	var (
		includeCurves bool
		format        string
	)

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent evaluation run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format, formatText, formatJSON, formatMarkdown); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("include-curves") {
				includeCurves = cfg.IncludeCurves()
			}
			client := newClient(cfg, nil)

			ev, err := spinner.While(cmd.ErrOrStderr(), "Fetching latest metrics", isTerminal(cmd.ErrOrStderr()),
				func() (*metrics.Evaluation, error) {
					return fetchLatest(client, includeCurves)(cmd.Context())
				})
			if err != nil {
				return err
			}
			return writeEvaluation(cmd.OutOrStdout(), ev, format)
		},
	}

	cmd.Flags().BoolVar(&includeCurves, "include-curves", true, "Include ROC and PR curve data")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or markdown")

	return cmd
}

func newGetCommand(g *globalOptions) *cobra.Command {
	var (
		includeCurves bool
		format        string
	)

	cmd := &cobra.Command{
		Use:   "get <run_id>",
		Short: "Show one evaluation run by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, formatText, formatJSON, formatMarkdown); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg, nil)

			ev, err := spinner.While(cmd.ErrOrStderr(), "Fetching run "+args[0], isTerminal(cmd.ErrOrStderr()),
				func() (*metrics.Evaluation, error) {
					body, err := client.GetMetricByID(cmd.Context(), args[0], metricsapi.LatestOptions{IncludeCurves: includeCurves})
					if metricsapi.IsStatus(err, http.StatusNotFound) {
						return nil, fmt.Errorf("run %q not found: %w", args[0], err)
					}
					if err != nil {
						return nil, err
					}
					return parseRun(body), nil
				})
			if err != nil {
				return err
			}
			return writeEvaluation(cmd.OutOrStdout(), ev, format)
		},
	}

	cmd.Flags().BoolVar(&includeCurves, "include-curves", true, "Include ROC and PR curve data")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or markdown")

	return cmd
}

// fetchLatest returns the poller fetch function for the latest run.
func fetchLatest(client *metricsapi.Client, includeCurves bool) poller.FetchFunc[*metrics.Evaluation] {
	return func(ctx context.Context) (*metrics.Evaluation, error) {
		body, err := client.GetLatestMetrics(ctx, metricsapi.LatestOptions{IncludeCurves: includeCurves})
		if err != nil {
			return nil, err
		}
		return parseRun(body), nil
	}
}

// parseRun converts a single-run response into an Evaluation. A body that
// is not a run document yields an empty Evaluation with a warning.
func parseRun(body *metricsapi.Body) *metrics.Evaluation {
	ev := metrics.ParseRun(metrics.Unwrap(body.Value))
	for _, w := range ev.Warnings {
		slog.Debug("run response", "warning", w)
	}
	return ev
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
