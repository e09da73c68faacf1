package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/taigrr/obsidian-search/internal/api"
	"github.com/taigrr/obsidian-search/internal/api/middleware"
	"github.com/taigrr/obsidian-search/internal/config"
	"github.com/taigrr/obsidian-search/internal/webui"
)

const shutdownTimeout = 10 * time.Second

func runServer(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd, args)
	if err != nil {
		return err
	}

	server, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", "http://"+cfg.Addr()).Msg("Starting Obsidian Search")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newServer(cfg *config.Config, logger zerolog.Logger) (*http.Server, error) {
	container := restful.NewContainer()
	container.Filter(middleware.Logger(logger))
	container.Filter(middleware.RecoverPanic(logger))

	api.RegisterRoutes(container, api.NewHandler(vaultService, version, logger))
	api.RegisterOpenAPI(container, version)

	ui, err := webui.New(webui.Page{
		Root:     vaultService.Root(),
		AllowAny: vaultService.AllowAny(),
		LinkMode: vaultService.LinkMode().String(),
		Version:  version,
	}, logger)
	if err != nil {
		return nil, err
	}
	ui.Register(container)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler.Handler(container),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Search.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}, nil
}
