package main

import (
	"options-observer/src/data_source/yahoo"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/network"
	"options-observer/src/notify"
	"options-observer/src/storage"
	"options-observer/src/utils"
)

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(config *models.MConfig) interfaces.INetworkManager {
	return network.NewAsyncNetworkManager(config, logger.NewLogger("NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupProvider initializes the options chain provider
func setupProvider(config *models.MConfig, networkManager interfaces.INetworkManager) interfaces.IOptionsProvider {
	return yahoo.NewYahooOptionsSource(config, networkManager)
}

// -----------------------------------------------------------------------------

// setupSnapshots opens the daily snapshot directory
func setupSnapshots(config *models.MConfig) interfaces.ISnapshotStore {
	return storage.NewSnapshotStore(config.Storage.DailyDir, logger.NewLogger("SnapshotStore"))
}

// -----------------------------------------------------------------------------

// setupNotifier returns the Telegram notifier, or a no-op one when disabled
func setupNotifier(config *models.MConfig) interfaces.INotifier {
	return notify.New(config.Telegram, logger.NewLogger("Telegram"))
}

// -----------------------------------------------------------------------------

// setupScheduler maps the tickers to exchange calendars
func setupScheduler(config *models.MConfig) *utils.MarketScheduler {
	return utils.NewMarketScheduler(config.DataSource.Tickers, logger.NewLogger("MarketScheduler"))
}
