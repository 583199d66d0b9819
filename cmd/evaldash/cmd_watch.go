package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/poller"
	"github.com/spf13/cobra"
)

const clearScreen = "\033[H\033[2J"

func newWatchCommand(g *globalOptions) *cobra.Command {
	var (
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the latest evaluation run in the terminal",
		Long: `Poll the latest evaluation run and redraw a metrics panel on every change.

When stdout is not a terminal the panel is printed as plain text, one block per
update. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = cfg.Poll.Interval
			}
			if interval < 0 {
				return fmt.Errorf("--interval must not be negative")
			}

			client := newClient(cfg, nil)
			snaps := openSnapshots(cfg, client.BaseURL())
			opts := poller.Options[*metrics.Evaluation]{
				Name:     "latest",
				Interval: interval,
			}
			snaps.seed(&opts)
			p := poller.New(fetchLatest(client, cfg.IncludeCurves()), opts)
			live := dashboard.NewLive(dashboard.New(), p)
			out := cmd.OutOrStdout()
			tty := isTerminal(out)

			if once {
				err := live.Refresh(cmd.Context())
				if st := p.Snapshot(); err == nil && st.HasData {
					snaps.store(st.Data)
				}
				drawView(out, live.View(), tty)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go snaps.persist(ctx, p)
			return watch(ctx, p, live, func(v dashboard.View) { drawView(out, v, tty) })
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (default from poll.interval, 5s)")
	cmd.Flags().BoolVar(&once, "once", false, "Fetch and print a single update, then exit")

	return cmd
}

// watch mounts p and redraws on every state change until ctx is cancelled.
func watch(ctx context.Context, p *poller.Poller[*metrics.Evaluation], live *dashboard.Live, draw func(dashboard.View)) error {
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		live.Follow(ctx, draw)
	}()
	err := p.Run(ctx)
	<-followed
	return err
}

func drawView(w io.Writer, v dashboard.View, tty bool) {
	if tty {
		fmt.Fprint(w, clearScreen)      //nolint:errcheck
		fmt.Fprintln(w, renderPanel(v)) //nolint:errcheck
		return
	}
	writeViewText(w, v)
	fmt.Fprintln(w, "---") //nolint:errcheck
}
