package main

import (
	"context"
	"time"

	"tally/internal/cli"
	"tally/internal/log"
	"tally/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentRecurring)

	logger.Info("Starting recurring-worker", "interval", cfg.RecurringInterval, "db_path", cfg.DBPath)

	repo := cli.InitSQLite(logger, cfg.DBPath)

	var publisher services.AlertPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		publisher = client
	}
	ledger := services.NewLedgerService(repo, publisher)
	// Close releases the database and the AMQP connection.
	defer ledger.Close()

	processor := services.NewRecurringProcessor(repo, ledger)
	scheduler := services.NewScheduler(processor, services.SchedulerConfig{
		PollInterval: cfg.RecurringInterval,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop scheduler", "error", err)
		}
	})

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		return
	}

	cli.WaitForShutdown(ctx, done)
}
