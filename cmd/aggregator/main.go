package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"options-observer/src/analysis"
	"options-observer/src/config"
	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/notify"
	"options-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	logger.SetLevel(conf.LogLevel)
	appLogger := logger.NewLogger("Aggregator")

	// 4. Setup Components
	snapshots := storage.NewSnapshotStore(conf.Storage.DailyDir, logger.NewLogger("SnapshotStore"))
	features, err := storage.NewFeatureStore(conf.MConfig, logger.NewLogger("FeatureStore"))
	if err != nil {
		appLogger.Critical("Failed to open features table: %v", err)
	}
	defer features.Close()

	notifier := notify.New(conf.Telegram, logger.NewLogger("Telegram"))
	aggregator := analysis.NewAggregator(snapshots, features, notifier, appLogger)

	// 5. Run once
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := aggregator.Run(ctx); err != nil && !errors.Is(err, helpers.ErrNoSnapshots) {
		features.Close()
		appLogger.Critical("Aggregation failed: %v", err)
	}
}
