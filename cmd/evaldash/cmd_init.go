package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spboyer/evaldash/internal/projectconfig"
	"github.com/spboyer/evaldash/internal/wizard"
	"github.com/spf13/cobra"
)

func newInitCommand(g *globalOptions) *cobra.Command {
	var (
		dir   string
		force bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .evaldash.yaml in the current directory",
		Long: `Create a .evaldash.yaml project configuration.

On a terminal an interactive form asks for the metrics API address, the poll
interval and the dashboard settings. Without a terminal, or with --yes, the
defaults are written (honouring --base-url).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := filepath.Join(dir, projectconfig.FileName)
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("checking %s: %w", target, err)
			}

			base := projectconfig.New()
			projectconfig.ApplyEnv(base)
			if g.baseURL != "" {
				base.API.BaseURL = g.baseURL
			}
			answers := wizard.AnswersFrom(base)

			if !yes && isTerminal(cmd.InOrStdin()) {
				got, err := wizard.Run(cmd.InOrStdin(), cmd.OutOrStdout(), answers)
				if err != nil {
					return err
				}
				answers = *got
			}

			cfg, err := answers.Config(base)
			if err != nil {
				return err
			}
			path, err := projectconfig.Save(dir, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write .evaldash.yaml to")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .evaldash.yaml")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Write defaults without prompting")

	return cmd
}
