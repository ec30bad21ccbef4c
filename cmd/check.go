package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/sim-health/internal/console"
	"github.com/angeloszaimis/sim-health/internal/healthcheck"
)

var errChecksFailed = errors.New("health checks failed")

type checkOptions struct {
	targets      []string
	watch        bool
	interval     time.Duration
	skipDatabase bool
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	co := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe health endpoints and the database",
		Long: `check sends GET requests to every target and, when a database URL is
configured, connects to the database. It exits non-zero if anything fails.
With --watch it keeps probing and logs targets going down or coming back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(opts)
			if err != nil {
				return err
			}

			targets := co.targets
			if len(targets) == 0 {
				targets = cfg.Probe.Targets
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if co.watch {
				var proberOpts []healthcheck.ProberOption
				if cfg.Probe.FailureThreshold > 0 {
					proberOpts = append(proberOpts, healthcheck.WithBackoff(cfg.Probe.FailureThreshold, cfg.ProbeCooldown()))
				}
				prober := healthcheck.NewProber(cfg.ProbeTimeout(), log.Slog(), proberOpts...)

				interval := co.interval
				if interval <= 0 {
					interval = cfg.ProbeInterval()
				}
				prober.Watch(ctx, targets, interval, nil)
				return nil
			}

			prober := healthcheck.NewProber(cfg.ProbeTimeout(), log.Slog())

			databaseURL := cfg.Database.URL
			if co.skipDatabase {
				databaseURL = ""
			}

			return runCheck(ctx, prober, targets, databaseURL, cfg.ProbeTimeout(), console.NewRenderer(cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringSliceVarP(&co.targets, "target", "t", nil, "health URL to probe (repeatable, default from config)")
	cmd.Flags().BoolVarP(&co.watch, "watch", "w", false, "keep probing and log state changes")
	cmd.Flags().DurationVar(&co.interval, "interval", 0, "probe interval in watch mode (default from config)")
	cmd.Flags().BoolVar(&co.skipDatabase, "skip-database", false, "do not connect to the database")

	return cmd
}

func runCheck(ctx context.Context, prober *healthcheck.Prober, targets []string, databaseURL string, timeout time.Duration, r *console.Renderer) error {
	if err := r.Heading("Sim Studio Health Check"); err != nil {
		return err
	}

	results := prober.ProbeAll(ctx, targets)
	results = append(results, healthcheck.PingDatabase(ctx, databaseURL, timeout))

	failed, err := r.Summary(results)
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, failed, len(results))
	}

	return nil
}
