package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/firstedition/internal/catalog"
	"github.com/lehigh-university-libraries/firstedition/internal/config"
	"github.com/lehigh-university-libraries/firstedition/internal/handlers"
	"github.com/lehigh-university-libraries/firstedition/internal/resolver"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start an HTTP server for earliest-edition lookups",
		Long: `Starts an HTTP API on the specified port.

GET /api/resolve?title=...&author=...&isbn=... returns the earliest edition
metadata as JSON, or 404 when nothing matches. author and isbn may repeat.
POST /api/resolve accepts {"title": "...", "authors": [...], "isbns": [...]}.`,
		Example: `  # Start server on default port 8888
  firstedition serve

  # Start server on custom port
  firstedition serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			res := resolver.New(catalog.NewClient(cfg.CatalogOptions()), cfg.Catalog.EditionCeiling)
			handler := handlers.New(res, timeout)

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Lookup API available", "addr", addr, "url", "http://localhost"+addr, "catalog", cfg.Catalog.BaseURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().DurationVar(&timeout, "resolve-timeout", 2*time.Minute, "Upper bound on one resolution")

	return cmd
}
