package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/angeloszaimis/sim-health/config"
	"github.com/angeloszaimis/sim-health/internal/health"
	"github.com/angeloszaimis/sim-health/internal/httpserver"
	"github.com/angeloszaimis/sim-health/internal/metrics"
	"github.com/angeloszaimis/sim-health/internal/middleware"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service exposing /health and /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(opts)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(ctx, cfg, log.Slog())
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reporter := health.NewReporter(health.Settings{
		Version:     cfg.App.Version,
		Environment: cfg.EnvironmentName(),
		DatabaseURL: cfg.Database.URL,
	}, log)

	router := setupRouter(log, reporter, metrics.NewMetrics(), cfg.Headers)

	srv, err := httpserver.New(cfg.Server.Address, router, log)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("Starting sim-health",
		slog.String("environment", cfg.EnvironmentName()),
		slog.String("version", cfg.App.Version),
		slog.Bool("database_configured", cfg.Database.URL != ""))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-srvErrCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	}
}

func setupRouter(log *slog.Logger, reporter *health.Reporter, m *metrics.Metrics, headers map[string]string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.SecurityHeaders(headers),
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Metrics(m),
		middleware.Recovery(log),
	)

	engine.GET("/health", gin.WrapH(reporter))
	engine.GET("/metrics", gin.WrapF(m.Handler()))

	return engine
}
