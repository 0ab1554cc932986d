package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"options-observer/src/models"
)

// -----------------------------------------------------------------------------

// Daily snapshot files are named options_<YYYY-MM-DD>.parquet so that lexical
// order equals date order.
const (
	SnapshotPrefix    = "options_"
	SnapshotExtension = ".parquet"
	SnapshotGlob      = SnapshotPrefix + "*" + SnapshotExtension
)

// Binary names used in operator-facing messages.
const (
	FetcherBinary    = "cmd/fetcher"
	AggregatorBinary = "cmd/aggregator"
)

// -----------------------------------------------------------------------------

// SnapshotFileName returns the file name for the snapshot captured on date.
func SnapshotFileName(date time.Time) string {
	return SnapshotPrefix + date.UTC().Format(models.DateLayout) + SnapshotExtension
}

// -----------------------------------------------------------------------------

// ParseSnapshotFileName extracts the capture date from a snapshot path.
func ParseSnapshotFileName(path string) (time.Time, error) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, SnapshotPrefix) || !strings.HasSuffix(name, SnapshotExtension) {
		return time.Time{}, fmt.Errorf("not a snapshot file: %s", name)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, SnapshotPrefix), SnapshotExtension)
	date, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date in snapshot file %s: %w", name, err)
	}
	return date, nil
}
