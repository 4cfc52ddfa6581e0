package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"slidegen/internal/app"
	"slidegen/internal/server"
	"slidegen/internal/storage"
	"slidegen/pkg/config"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presentation HTTP API",
	Long: `Serve the generation endpoints over HTTP. Staged uploads are removed on shutdown,
and generated decks too unless storage.keep_outputs is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	built, err := app.BuildService(ctx, cfg, verbose)
	if err != nil {
		return err
	}
	defer func() {
		if err := built.Close(); err != nil {
			slog.Warn("Failed to close service", "error", err)
		}
	}()

	local := built.Service.Storage()
	defer func() {
		if err := local.Cleanup(cfg.Storage.KeepOutputs); err != nil {
			slog.Warn("Storage cleanup incomplete", "error", err)
		} else {
			slog.Info("Storage cleaned up", "keep_outputs", cfg.Storage.KeepOutputs)
		}
	}()

	if cfg.Cleanup.Enabled {
		sweeper, err := storage.NewSweeper(local, cfg.Cleanup.Schedule, cfg.Cleanup.MaxAge)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	api := server.New(server.Options{
		Generator:      app.NewPipeline(built.Service),
		Workspaces:     local,
		History:        built.Service.History(),
		StaticDir:      cfg.Server.StaticDir,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", cfg.Server.Addr, "llm_provider", cfg.LLM.Provider, "template", cfg.Template.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
