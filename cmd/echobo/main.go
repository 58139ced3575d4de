package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"echobo/internal/backend"
	"echobo/internal/cli"
	"echobo/internal/config"
	apphttp "echobo/internal/http"
	"echobo/internal/log"
	"echobo/internal/store"
	"echobo/internal/view"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	opts := []store.Option{store.WithLogger(logger)}
	if res.Publisher != nil {
		opts = append(opts, store.WithPublisher(res.Publisher))
	}
	st := store.New(res.Persister, opts...)
	if _, err := st.Initialize(ctx); err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		os.Exit(1)
	}

	sy := view.NewSynchronizer(st, view.WithLogger(logger))
	srv, err := apphttp.NewServer(cfg.Addr(), st, sy, logger, apphttp.WithActionLimit(cfg.ActionsPerMinute))
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting echobo server",
			"addr", cfg.Addr(),
			log.FieldBackend, cfg.DataBackend,
			"events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}
