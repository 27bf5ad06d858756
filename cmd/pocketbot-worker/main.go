package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pocketbot/internal/amqp"
	"pocketbot/internal/cli"
	"pocketbot/internal/config"
	"pocketbot/internal/log"
	"pocketbot/internal/services"
	"pocketbot/internal/sheets"
	gsheet "pocketbot/internal/sheets/google"
	smem "pocketbot/internal/sheets/memory"
	"pocketbot/internal/storage"
	"pocketbot/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting pocketbot-worker", log.FieldOperation, log.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.WithLogger(logger))
	if err != nil {
		return err
	}
	defer repo.Close()

	ledger, err := newLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithLogger(logger))
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	mirror := services.NewMirror(repo, ledger, logger)
	syncWorker := worker.NewSyncWorker(mirror, cfg.SyncBatchSize, logger)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	// polling backstop for events lost while the broker was unreachable
	processor := services.NewSyncProcessor(mirror, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	}, logger)
	if err := processor.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Warn("Sync processor stop failed", log.FieldError, err)
		}
	}()

	err = amqpClient.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
	return nil
}

// newLedger returns the Google Sheets mirror, or an in-memory one when no
// spreadsheet is configured.
func newLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Ledger, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to memory only")
		return smem.New(cfg.Location()), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
		Location:        cfg.Location(),
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
