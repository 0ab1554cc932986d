package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/models"

	"github.com/parquet-go/parquet-go"
)

// ParquetFeatureStore keeps the features table in a single parquet file that
// is rewritten on every Save.
type ParquetFeatureStore struct {
	Path   string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewParquetFeatureStore(path string, log *logger.Logger) *ParquetFeatureStore {
	return &ParquetFeatureStore{Path: path, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *ParquetFeatureStore) Location() string {
	return s.Path
}

// -----------------------------------------------------------------------------

func (s *ParquetFeatureStore) Save(rows []models.MDailyFeature) error {
	records := make([]featureRecord, len(rows))
	for i, r := range rows {
		records[i] = toFeatureRecord(r)
	}

	err := writeFileAtomic(s.Path, func(w io.Writer) error {
		return parquet.Write(w, records)
	})
	if err != nil {
		return helpers.NewStorageError(fmt.Sprintf("failed to write features %s", s.Path), err)
	}

	s.Logger.Info("Saved %d feature rows to %s", len(rows), s.Path)
	return nil
}

// -----------------------------------------------------------------------------

func (s *ParquetFeatureStore) Exists() (bool, error) {
	_, err := os.Stat(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, helpers.NewStorageError(fmt.Sprintf("failed to stat %s", s.Path), err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (s *ParquetFeatureStore) Load() ([]models.MDailyFeature, error) {
	records, err := parquet.ReadFile[featureRecord](s.Path)
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("failed to read features %s", s.Path), err)
	}

	rows := make([]models.MDailyFeature, len(records))
	for i, r := range records {
		rows[i] = fromFeatureRecord(r)
	}
	return rows, nil
}

// -----------------------------------------------------------------------------

func (s *ParquetFeatureStore) Close() error {
	return nil
}
