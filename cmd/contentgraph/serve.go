package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/contentgraph"
	"github.com/aretw0/contentgraph/internal/cli"
	"github.com/aretw0/contentgraph/internal/presentation/tui"
	httpAdapter "github.com/aretw0/contentgraph/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog HTTP server",
	Long: `Serves the configured catalog as a JSON API with a Mermaid graph endpoint,
POST /refresh to run a load cycle, and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		interval, _ := cmd.Flags().GetDuration("refresh-interval")
		loadOnStart, _ := cmd.Flags().GetBool("load-on-start")

		app, err := newApp(cmd, cli.WithMetrics())
		if err != nil {
			return err
		}
		defer app.Close()

		tui.PrintBanner(os.Stderr, contentgraph.Version)

		handler := httpAdapter.NewHandler(app.Catalog,
			httpAdapter.WithRefresher(httpAdapter.RefresherFunc(app.Refresh)),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
			httpAdapter.WithInfo(app.Workspace.SiteName(), contentgraph.Version),
			httpAdapter.WithLogger(app.Logger),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if loadOnStart {
			if n, err := app.Refresh(ctx); err != nil {
				app.Logger.Error("Initial load failed", "err", err, "registered", n)
			}
		}
		if interval > 0 {
			go refreshLoop(ctx, app, interval)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting contentgraph server", "addr", srv.Addr, "site", app.Workspace.SiteName())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			app.Logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			app.Logger.Info("contentgraph server stopped gracefully")
			return nil
		}
	},
}

// refreshLoop runs a load cycle every interval until ctx is done.
func refreshLoop(ctx context.Context, app *cli.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := app.Refresh(ctx); err != nil {
				app.Logger.Error("Scheduled load failed", "err", err, "registered", n)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("refresh-interval", 0, "Run a load cycle on this interval (0 disables)")
	serveCmd.Flags().Bool("load-on-start", true, "Run a load cycle before serving")
}
