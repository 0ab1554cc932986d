package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"options-observer/src/config"
	"options-observer/src/logger"
	"options-observer/src/server"
	"options-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *writeConfig {
		if err := conf.Save(*configPath); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", *configPath)
		return
	}

	// 3. Setup Logger
	logger.SetLevel(conf.LogLevel)
	appLogger := logger.NewLogger("Dashboard")

	// 4. Load tables; the features table is required
	features, err := storage.NewFeatureStore(conf.MConfig, logger.NewLogger("FeatureStore"))
	if err != nil {
		appLogger.Critical("Failed to open features table: %v", err)
	}
	snapshots := storage.NewSnapshotStore(conf.Storage.DailyDir, logger.NewLogger("SnapshotStore"))

	tables, err := server.LoadTables(features, snapshots, appLogger)
	features.Close()
	if err != nil {
		appLogger.Critical("%v", err)
	}

	// 5. Start Servers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewDashboardServer(conf.MConfig, tables, appLogger)
	shutdown, failed := startServers(srv, tables, conf, appLogger)

	exitCode := 0
	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down...")
	case err := <-failed:
		appLogger.Error("Dashboard server failed: %v", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdown(shutdownCtx)
	appLogger.Info("Shutdown complete.")

	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}
}
