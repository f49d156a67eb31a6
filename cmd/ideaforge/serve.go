package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/ideaforge/internal/api"
	"github.com/hoanghai1803/ideaforge/internal/api/handlers"
)

// maxRequestCount caps the result count a single API request may ask for.
const maxRequestCount = 50

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the idea pipeline over HTTP",
	Long: `serve starts an HTTP server exposing POST /api/ideas, which runs one pass
for the query in the request body, and GET /api/health.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}

		p, err := newPipeline(cfg, pipelineHooks{})
		if err != nil {
			return err
		}

		addr := cfg.Addr()
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		router := api.NewRouter(p, handlers.Defaults{
			Query:    cfg.Search.Query,
			Count:    cfg.Search.ResultCount,
			MaxCount: maxRequestCount,
		})

		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("starting server", "addr", "http://"+addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address host:port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
