/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HOA dues ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse flags and environment (config.Parse)
  2. Initialize the SQLite snapshot store
  3. Load the ledger state into memory (ledger.Open)
  4. Create API handler and router
  5. Start the background dues scheduler
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/hoa.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on a different address
  ./server -addr=":3000"

SEE ALSO:
  - config/config.go: Flags and environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Snapshot store
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hoa-ledger/api"
	"github.com/warp/hoa-ledger/config"
	"github.com/warp/hoa-ledger/ledger"
	"github.com/warp/hoa-ledger/store/sqlite"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Parse()
	if err != nil {
		logger.Fatal("failed to parse configuration", zap.Error(err))
	}

	baseFee, err := ledger.ParseAmount(cfg.BaseFee)
	if err != nil || !baseFee.IsPositive() {
		logger.Fatal("base fee must be a positive number", zap.String("baseFee", cfg.BaseFee))
	}

	kv, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer kv.Close()

	store, err := ledger.Open(context.Background(), kv, baseFee)
	if err != nil {
		logger.Fatal("failed to load ledger state", zap.Error(err))
	}

	handler := api.NewHandler(store, logger)
	router := api.NewRouter(handler)

	loop := api.NewSchedulerLoop(handler, logger)
	loop.CheckInterval = cfg.SchedulerInterval
	loop.Enabled = cfg.SchedulerEnabled
	loop.Start()
	defer loop.Stop()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
