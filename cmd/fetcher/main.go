package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"options-observer/src/config"
	"options-observer/src/extract"
	"options-observer/src/helpers"
	"options-observer/src/logger"
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
	appLogger := logger.NewLogger("Fetcher")
	if conf.FromDefaults {
		appLogger.Info("No config file at %s, using defaults", *configPath)
	}

	// 4. Setup Components
	networkManager := setupNetwork(conf.MConfig)
	fetcher := extract.NewFetcher(
		conf.MConfig,
		setupProvider(conf.MConfig, networkManager),
		setupSnapshots(conf.MConfig),
		setupNotifier(conf.MConfig),
		appLogger,
	)
	if conf.Fetcher.SkipNonTradingDays {
		fetcher.Scheduler = setupScheduler(conf.MConfig)
	}

	// 5. Run once
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := fetcher.Run(ctx); err != nil && !errors.Is(err, helpers.ErrNoChains) {
		appLogger.Critical("Fetch failed: %v", err)
	}
}
