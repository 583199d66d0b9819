package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spboyer/evaldash/internal/metricsapi"
	"github.com/spboyer/evaldash/internal/projectconfig"
	"github.com/spboyer/evaldash/internal/telemetry"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	debug     bool
	baseURL   string
	configDir string
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "evaldash",
		Short: "evaldash - dashboard client for model evaluation metrics",
		Long: `evaldash is a command-line client and local dashboard for a model
evaluation metrics API.

It fetches the latest or a specific evaluation run, lists past runs, forwards
prediction requests, and serves a live dashboard with metric cards and ROC and
Precision-Recall charts.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "Metrics API base URL (overrides .evaldash.yaml and "+projectconfig.EnvBaseURL+")")
	cmd.PersistentFlags().StringVar(&g.configDir, "config", ".", "Directory to start the .evaldash.yaml search from")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if g.debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newLatestCommand(g))
	cmd.AddCommand(newListCommand(g))
	cmd.AddCommand(newGetCommand(g))
	cmd.AddCommand(newPredictCommand(g))
	cmd.AddCommand(newWatchCommand(g))
	cmd.AddCommand(newServeCommand(g))
	cmd.AddCommand(newInitCommand(g))
	cmd.AddCommand(newCacheCommand(g))

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration: defaults, then
// .evaldash.yaml, then the environment (including .env), then flags.
func (g *globalOptions) loadConfig() (*projectconfig.ProjectConfig, error) {
	if err := projectconfig.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := projectconfig.Load(g.configDir)
	if err != nil {
		return nil, err
	}
	projectconfig.ApplyEnv(cfg)
	if g.baseURL != "" {
		cfg.API.BaseURL = g.baseURL
	}
	if cfg.Path != "" {
		slog.Debug("loaded project config", "path", cfg.Path)
	}
	return cfg, nil
}

// newClient builds a metrics API client for cfg.
func newClient(cfg *projectconfig.ProjectConfig, tel *telemetry.Recorder) *metricsapi.Client {
	return metricsapi.New(metricsapi.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Telemetry:  tel,
	})
}

// validateFormat returns an error unless format is one of allowed.
func validateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q: must be one of %v", format, allowed)
}
