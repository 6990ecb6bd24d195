package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/telegram"
	"fintrack/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentWorker, (*config.Config).ValidateWorker)
	logger.Info("Starting fintrack-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	factory := backend.NewFactory(logger.Logger.With(log.FieldComponent, log.ComponentBackend))

	storeCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	storeResult, err := factory.CreateStore(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer cli.RunCleanup(logger, 10*time.Second, func() {
		if err := storeResult.Cleanup(); err != nil {
			logger.Warn("Failed to close store", log.FieldError, err)
		}
	})

	expenses := services.NewExpenseService(storeResult.Store, nil)
	reports := services.NewReportService(storeResult.Store)

	tg, err := telegram.New(cfg.BotToken, cfg.MaxImportBytes, logger.WithComponent(log.ComponentTelegram))
	if err != nil {
		return err
	}

	handlers := []worker.EventHandler{worker.NewAlertWorker(expenses, reports, tg)}

	caches := cache.NewManager()
	defer caches.Stop()

	mirror, err := factory.NewMirror(ctx, cfg)
	if err != nil {
		return err
	}
	if mirror != nil {
		handlers = append(handlers, worker.NewSheetsMirror(storeResult.Store, mirror))
		caches.Register(mirror.RowCache())
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer consumer.Close()

	chain := worker.NewChain(worker.DefaultMaxAttempts, handlers...)
	for _, c := range chain.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(time.Hour)

	logger.Info("Consuming expense events",
		"handlers", len(handlers),
		"dead_letter_queue", amqp.DeadLetterQueue(cfg.AMQPQueue))
	err = consumer.Consume(ctx, chain.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
