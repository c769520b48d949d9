package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/api"
	"github.com/hfujimori/agenda-sync/internal/id/uuid"
	"github.com/hfujimori/agenda-sync/internal/schedule"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the scheduler daemon with its HTTP interface",
		Long: `Starts the cron scheduler that fires the daily pipeline run and an
HTTP server exposing health checks, Prometheus metrics, the latest run
record and a manual trigger endpoint.`,
		RunE: runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.close()

	sched, err := schedule.New(svc.cfg.Schedule.Cron, svc.runner, uuid.New(), svc.logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start(ctx)

	server := api.NewServer(sched, svc.container.RunStore(), svc.logger)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", svc.cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		svc.logger.Info("http server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		svc.logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		svc.logger.Warn("http server shutdown failed", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		svc.logger.Warn("scheduler did not stop cleanly", zap.Error(err))
	}
	return nil
}
