package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"echobo/internal/amqp"
	"echobo/internal/cache"
	"echobo/internal/cli"
	"echobo/internal/config"
	"echobo/internal/log"
	gsheet "echobo/internal/sheets/google"
	"echobo/internal/storage"
	"echobo/internal/worker"
)

const (
	recentMessages = 4096
	recentTTL      = 15 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting echobo-worker",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"queue", cfg.AMQPQueue)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	writer, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		amqp.WithLogger(logger), amqp.WithPrefetch(cfg.AMQPPrefetch))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	recent := cache.NewLRUCache[string](recentMessages, recentTTL)
	mirror := worker.NewLedgerSync(writer, logger, worker.WithRecent(recent))
	if err := mirror.Start(ctx); err != nil {
		logger.Error("Failed to prepare sheet", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// The SQLite ledger is the source of truth; rewriting it on boot fills
	// rows whose messages were lost while the worker was down.
	if cfg.DataBackend == "sqlite" {
		g.Go(func() error {
			db, err := storage.NewSQLiteStore(cfg.SQLiteDBPath, logger)
			if err != nil {
				logger.Warn("Skipping startup reconcile", log.FieldError, err)
				return nil
			}
			defer db.Close()
			if _, err := mirror.Reconcile(gctx, db); err != nil && gctx.Err() == nil {
				logger.Error("Startup reconcile incomplete", log.FieldError, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		cache.Sweep(gctx, recentTTL, func(removed int) {
			logger.Debug("Expired message IDs dropped", "removed", removed)
		}, recent)
		return nil
	})

	g.Go(func() error {
		return client.ConsumeExpenseRecorded(gctx, mirror.Handle)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
