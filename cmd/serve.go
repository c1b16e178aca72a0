package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prdmaker/prdmaker/internal/config"
	"github.com/prdmaker/prdmaker/internal/llm"
	"github.com/prdmaker/prdmaker/internal/server"
	"github.com/prdmaker/prdmaker/internal/store"
	"github.com/spf13/cobra"
)

// ServeCmd represents the serve command.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the PRD Maker HTTP API",
	Long: `Run the HTTP API server.

Configuration comes from the environment (PORT, APP_ENV, DATABASE_URL),
with .env as a fallback source. The server ensures the database schema on
startup and shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	analyzer := llm.NewAnalyzer(llm.DefaultConfig())
	handler := server.NewHandler(st, analyzer, logger)
	srv := server.New(cfg.Port, server.NewMux(handler, st, logger), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
