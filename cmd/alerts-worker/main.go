package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/log"
	"tally/internal/worker"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting alerts-worker", "queue", cfg.AMQPQueue)

	if !cfg.AMQPEnabled() {
		logger.Error("alerts-worker requires AMQP_URL")
		return 1
	}

	repo := cli.InitSQLite(logger, cfg.DBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return 1
	}
	defer client.Close()

	alerts := worker.NewAlertWorker(repo)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	if err := client.ConsumeBudgetAlerts(ctx, alerts.HandleBudgetAlert); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		return 1
	}

	cli.WaitForShutdown(ctx, done)
	return 0
}
