package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/utils"

	"github.com/parquet-go/parquet-go"
)

// SnapshotStore keeps one parquet file per capture day in Dir.
type SnapshotStore struct {
	Dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSnapshotStore(dir string, log *logger.Logger) *SnapshotStore {
	return &SnapshotStore{Dir: dir, Logger: log}
}

// -----------------------------------------------------------------------------

// Write replaces the snapshot for date with rows.
func (s *SnapshotStore) Write(date time.Time, rows []models.MOptionContract) (string, error) {
	path := filepath.Join(s.Dir, utils.SnapshotFileName(date))

	records := make([]contractRecord, len(rows))
	for i, r := range rows {
		records[i] = toContractRecord(r)
	}

	err := writeFileAtomic(path, func(w io.Writer) error {
		return parquet.Write(w, records)
	})
	if err != nil {
		return "", helpers.NewStorageError(fmt.Sprintf("failed to write snapshot %s", path), err)
	}

	s.Logger.Info("Saved %d rows to %s", len(rows), path)
	return path, nil
}

// -----------------------------------------------------------------------------

// List returns the snapshot paths sorted by name, which is date order.
func (s *SnapshotStore) List() ([]string, error) {
	if _, err := os.Stat(s.Dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.Dir, utils.SnapshotGlob))
	if err != nil {
		return nil, helpers.NewStorageError("failed to list snapshots", err)
	}

	paths := matches[:0]
	for _, m := range matches {
		if _, err := utils.ParseSnapshotFileName(m); err != nil {
			s.Logger.Warning("Ignoring %s: %v", m, err)
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)
	return paths, nil
}

// -----------------------------------------------------------------------------

// Read loads a single snapshot file.
func (s *SnapshotStore) Read(path string) ([]models.MOptionContract, error) {
	records, err := parquet.ReadFile[contractRecord](path)
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("failed to read snapshot %s", path), err)
	}

	rows := make([]models.MOptionContract, len(records))
	for i, r := range records {
		rows[i] = fromContractRecord(r)
	}
	return rows, nil
}

// -----------------------------------------------------------------------------

// ReadAll concatenates all snapshots in date order. It returns
// helpers.ErrNoSnapshots when the directory holds none.
func (s *SnapshotStore) ReadAll() ([]models.MOptionContract, error) {
	paths, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, helpers.ErrNoSnapshots
	}

	var all []models.MOptionContract
	for _, p := range paths {
		rows, err := s.Read(p)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}

	s.Logger.Info("Loaded %d rows from %d snapshots", len(all), len(paths))
	return all, nil
}

// -----------------------------------------------------------------------------

// Latest loads the lexically greatest snapshot.
func (s *SnapshotStore) Latest() ([]models.MOptionContract, time.Time, error) {
	paths, err := s.List()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(paths) == 0 {
		return nil, time.Time{}, helpers.ErrNoSnapshots
	}

	latest := paths[len(paths)-1]
	date, err := utils.ParseSnapshotFileName(latest)
	if err != nil {
		return nil, time.Time{}, err
	}

	rows, err := s.Read(latest)
	if err != nil {
		return nil, time.Time{}, err
	}
	return rows, date, nil
}
