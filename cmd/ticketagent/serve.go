package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tbxark/ticketagent/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func newServeCommand() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if cErr := a.Close(); cErr != nil {
					slog.Warn("Failed to close store", "error", cErr)
				}
			}()
			if a.sweep != nil {
				go sweepLoop(ctx, a.sweep, time.Minute)
			}
			return serve(ctx, a, debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "gin debug mode and access log")
	return cmd
}

func serve(ctx context.Context, a *app, debug bool) error {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	router := server.New(a.engine, a.catalog, server.Options{
		TurnWindow: a.config.History.Window,
		AccessLog:  debug,
	})
	srv := &http.Server{
		Addr:              a.config.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting ticketagent server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down ticketagent server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func sweepLoop(ctx context.Context, sweep func() int, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sweep(); n > 0 {
				slog.Debug("Expired sessions removed", "count", n)
			}
		}
	}
}
