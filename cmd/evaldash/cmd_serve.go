package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spboyer/evaldash/internal/chart"
	"github.com/spboyer/evaldash/internal/dashboard"
	"github.com/spboyer/evaldash/internal/metrics"
	"github.com/spboyer/evaldash/internal/poller"
	"github.com/spboyer/evaldash/internal/telemetry"
	"github.com/spboyer/evaldash/internal/validation"
	"github.com/spboyer/evaldash/internal/webserver"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const dashboardTitle = "Model evaluation"

func newServeCommand(g *globalOptions) *cobra.Command {
	var (
		port      int
		interval  time.Duration
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live evaluation dashboard",
		Long: `Serve a local dashboard for the latest evaluation run.

The latest run is polled in the background. The page shows one card per metric,
the confusion matrix, and ROC and Precision-Recall charts that are redrawn on
every update. The server also exposes:

  /report         markdown summary rendered as HTML
  /api/view       current view as JSON
  /api/refresh    fetch now (POST)
  /api/interval   read (GET) or change (PUT) the polling interval
  /api/runs       paged run list with aggregates
  /api/runs/{id}  one run
  /api/predict    validated prediction proxy (POST)
  /metrics        Prometheus metrics

The server binds to 127.0.0.1 only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}
			if !cmd.Flags().Changed("interval") {
				interval = cfg.Poll.Interval
			}
			if !cmd.Flags().Changed("no-browser") {
				noBrowser = cfg.NoBrowser()
			}
			if interval < 0 {
				return fmt.Errorf("--interval must not be negative")
			}

			schema, err := validation.LoadSchema(cfg.Predict.Schema)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			tel := telemetry.New(reg)
			client := newClient(cfg, tel)

			snaps := openSnapshots(cfg, client.BaseURL())
			opts := poller.Options[*metrics.Evaluation]{
				Name:      "latest",
				Interval:  interval,
				Telemetry: tel,
			}
			snaps.seed(&opts)
			p := poller.New(fetchLatest(client, cfg.IncludeCurves()), opts)
			live := dashboard.NewLive(dashboard.New(), p)

			charts := chart.NewBoard(dashboardTitle)
			defer charts.Close()
			drawCharts(charts, live.View())

			srv, err := webserver.New(webserver.Config{
				Port:           port,
				NoBrowser:      noBrowser,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Backend:        client,
				Dashboard:      live,
				Validator:      schema,
				Charts:         charts,
				BaseURL:        client.BaseURL(),
				Gatherer:       reg,
				Out:            cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, p, live, charts, srv, snaps)
		},
	}

	cmd.Flags().IntVar(&port, "port", webserver.DefaultPort, "Port to listen on")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (default from poll.interval, 5s)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Don't open the dashboard in a browser")

	return cmd
}

// serve runs the poller, the chart updater, the snapshot writer and the HTTP
// server until ctx is cancelled or one of them fails.
func serve(ctx context.Context, p *poller.Poller[*metrics.Evaluation], live *dashboard.Live, charts *chart.Board, srv *webserver.Server, snaps *snapshots) error {
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return p.Run(gctx)
	})
	group.Go(func() error {
		live.Follow(gctx, func(v dashboard.View) {
			drawCharts(charts, v)
			if v.Error != "" {
				slog.Warn("latest metrics refresh failed", "error", v.Error)
			}
		})
		return nil
	})
	group.Go(func() error {
		snaps.persist(gctx, p)
		return nil
	})
	group.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	return group.Wait()
}

// drawCharts replaces both chart instances with ones built from v.
func drawCharts(b *chart.Board, v dashboard.View) {
	b.Draw(chart.CanvasROC, chart.ROC(v.ROC))
	b.Draw(chart.CanvasPR, chart.PR(v.PR))
}
