package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/bot"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/conversation"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/telegram"
)

const cacheSweepInterval = 5 * time.Minute

func main() {
	cfg, logger := cli.LoadConfig(log.ComponentBot, (*config.Config).ValidateBot)
	logger.Info("Starting fintrack bot",
		"backend", cfg.DataBackend,
		"categories", len(cfg.Categories))

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
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

	// Keep the interface nil when events are disabled.
	var publisher services.Publisher
	if client := factory.NewPublisher(cfg); client != nil {
		publisher = client
		defer client.Close()
	}

	expenses := services.NewExpenseService(storeResult.Store, publisher)
	reports := services.NewReportService(storeResult.Store)

	flows := cache.NewLRUCache[int64, conversation.Flow](cfg.FlowCacheSize, cfg.FlowTTL)
	caches := cache.NewManager()
	caches.Register(flows)
	caches.StartCleanup(cacheSweepInterval)
	defer caches.Stop()

	machine := conversation.NewMachine(expenses, flows,
		conversation.WithCustomLabel(bot.BtnCustomCategory))

	tg, err := telegram.New(cfg.BotToken, cfg.MaxImportBytes, logger.WithComponent(log.ComponentTelegram))
	if err != nil {
		return err
	}

	dispatcher := bot.NewDispatcher(tg, machine, expenses, reports, bot.Options{
		Categories:     cfg.Categories,
		HistoryLimit:   cfg.HistoryLimit,
		MaxImportBytes: cfg.MaxImportBytes,
	}, logger)

	health := apphttp.NewServer(":"+cfg.HealthPort, storeResult.Store, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return health.Run(gctx)
	})
	g.Go(func() error {
		return tg.Run(gctx, dispatcher)
	})

	return g.Wait()
}
