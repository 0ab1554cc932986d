package storage

import (
	"fmt"

	"options-observer/src/config"
	"options-observer/src/helpers"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"
)

// NewFeatureStore opens the features table on the configured backend.
func NewFeatureStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IFeatureStore, error) {
	st := cfg.Storage

	switch st.FeaturesBackend {
	case "", config.BackendParquet:
		return NewParquetFeatureStore(st.FeaturesPath, log), nil
	case config.BackendSQLite:
		return NewSQLiteFeatureStore(st.DBPath, log)
	case config.BackendPostgres:
		return NewPostgresFeatureStore(st.DBConnectionString, log)
	case config.BackendClickHouse:
		return NewClickHouseFeatureStore(st.DBConnectionString, log)
	default:
		return nil, helpers.NewConfigurationError(fmt.Sprintf("unknown features backend %q", st.FeaturesBackend), nil)
	}
}
