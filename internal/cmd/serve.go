package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ioproxxy/mosolarweb/internal/pkg/telemetry"
	"github.com/ioproxxy/mosolarweb/internal/storefront/adapters/httpx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&adminPassword, "admin-password", "", "create an admin account when running on the memory store")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	telemetry.InitLogger(cfg.Log.Level, cfg.Telemetry.ServiceName)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Environment: cfg.Telemetry.Environment,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var closers cleanup
	defer closers.run()
	application, err := buildApplication(ctx, cfg, &closers)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == "memory" {
		if err := Seed(ctx, application.store, SeedOptions{AdminPassword: adminPassword, Products: true}); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpx.NewRouter(application.handler, application.tokens),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("storefront running", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "payment_dev_mode", cfg.Payment.DevMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
