package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/cli"
	apphttp "tally/internal/http"
	"tally/internal/log"
	"tally/internal/services"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.DBPath)

	var publisher services.AlertPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		publisher = client
	}
	ledger := services.NewLedgerService(repo, publisher)
	// Close releases the database and the AMQP connection.
	defer ledger.Close()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:    ":" + cfg.Port,
		Reports: services.NewReportService(repo),
		Ledger:  ledger,
		Habits:  services.NewHabitService(repo),
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting HTTP server", "addr", srv.Addr, "db_path", cfg.DBPath, "amqp", publisher != nil)
	if err := serve(ctx, srv, logger, 10*time.Second); err != nil {
		logger.Error("Server error", "error", err)
		return 1
	}
	logger.Info("Server stopped")
	return 0
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until ctx is cancelled or the listener fails, then shuts it
// down within timeout.
func serve(ctx context.Context, srv httpServer, logger *log.Logger, timeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
