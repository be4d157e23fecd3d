package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/cache"
	"cashflow/internal/cli"
	"cashflow/internal/core"
	apphttp "cashflow/internal/http"
	"cashflow/internal/ledger"
	applog "cashflow/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	store, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close storage backend", applog.FieldError, err)
		}
	}()

	summaries := cache.NewLRUCache[core.CashFlowSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache))
	cacheManager.Register(summaries)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	opts := []ledger.Option{
		ledger.WithSummaryCache(summaries),
		ledger.WithLogger(logger.WithComponent(applog.ComponentLedger)),
	}

	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts = append(opts, ledger.WithNotifier(amqpClient))
		logger.Info("Publishing ledger changes", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled, ledger changes are not published")
	}

	svc := ledger.NewService(store.Store, opts...)

	if cfg.ReconcileOnStartup {
		balance, err := svc.RecalculateBalance(context.Background())
		switch {
		case errors.Is(err, core.ErrBalanceNotInitialized):
			logger.Info("Ledger not initialized yet, skipping reconciliation")
		case err != nil:
			logger.Error("Startup reconciliation failed", applog.FieldError, err)
			os.Exit(1)
		default:
			logger.Info("Ledger reconciled",
				applog.FieldBalance, balance.CurrentBalance.StringFixed(2))
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitRPM: cfg.RateLimitRPM,
		Logger:       logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting cashflow server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
