package main

import (
	"fmt"

	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/spinner"
	"github.com/spf13/cobra"
)

func newListCommand(g *globalOptions) *cobra.Command {
	var (
		limit         int
		page          int
		includeCurves bool
		format        string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List evaluation runs, most recent first",
		Long: `List evaluation runs one page at a time.

The table shows the headline metrics of every run on the page, followed by the
mean and standard deviation of each metric across the page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			if limit < 0 || page < 0 {
				return fmt.Errorf("--limit and --page must not be negative")
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.List.Limit
			}
			if limit == 0 {
				limit = metrics.DefaultLimit
			}
			if page == 0 {
				page = metrics.DefaultPage
			}
			client := newClient(cfg, nil)

			body, err := spinner.While(cmd.ErrOrStderr(), "Fetching runs", isTerminal(cmd.ErrOrStderr()),
				func() (*metricsapi.Body, error) {
					return client.ListMetrics(cmd.Context(), metricsapi.ListOptions{
						Limit:         limit,
						Page:          page,
						IncludeCurves: includeCurves,
					})
				})
			if err != nil {
				return err
			}

			decoded, err := metrics.DecodePage(body.Value, metrics.EmptyPage(page, limit))
			if err != nil {
				return fmt.Errorf("unexpected list response: %w", err)
			}
			return writePage(cmd.OutOrStdout(), decoded, format)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", metrics.DefaultLimit, "Runs per page")
	cmd.Flags().IntVar(&page, "page", metrics.DefaultPage, "Page number, starting at 1")
	cmd.Flags().BoolVar(&includeCurves, "include-curves", false, "Include ROC and PR curve data")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text or json")

	return cmd
}
