package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newWatchCmd creates the 'watch' subcommand: periodic ingestion runs with
// an HTTP endpoint exposing health and Prometheus metrics.
func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Runs the monitor periodically",
		Long: `Executes an ingestion run on a fixed interval until interrupted, and
serves /healthz and /metrics for scraping. Runs never overlap; state
errors stop the loop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatchCommand(cmd, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Hour, "delay between runs")
	return cmd
}

func runWatchCommand(cmd *cobra.Command, interval time.Duration) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newStatusServer(a.cfg.Server.Port)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("status server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("status server shutdown failed", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// Each run rebuilds its engine so state is re-loaded from disk and
		// file handles never outlive a run.
		eng, err := buildEngine(a.cfg, a.logger)
		if err != nil {
			return err
		}
		_, runErr := eng.pipeline.Run(ctx, eng.query)
		eng.Close(a.logger)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("run aborted: %w", runErr)
		}

		select {
		case <-ctx.Done():
			a.logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func newStatusServer(port int) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
