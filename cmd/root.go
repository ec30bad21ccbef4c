package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/sim-health/config"
	"github.com/angeloszaimis/sim-health/pkg/logger"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "sim-health",
		Short: "Health endpoint and probe for Sim Studio deployments",
		Long: `sim-health serves the /health endpoint for a Sim Studio instance and
can probe running instances and their database from the outside.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: ./config/config.yaml or ./config.yaml)")

	root.AddCommand(newServeCmd(opts), newCheckCmd(opts))
	return root
}

// loadRuntime loads configuration and builds the process logger from it.
func loadRuntime(opts *rootOptions) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}

	log := newLogger(cfg)
	return cfg, log, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	log := logger.New(logger.NewConfig(cfg.Logging.Level, cfg.IsDevelopment()), nil)

	if cfg.Logging.Level != "" {
		if _, ok := logger.ParseLevel(cfg.Logging.Level); !ok {
			log.Slog().Warn("Unknown log level, defaulting to info", slog.String("requested", cfg.Logging.Level))
		}
	}

	return log
}
