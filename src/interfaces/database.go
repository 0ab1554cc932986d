package interfaces

import (
	"time"

	"options-observer/src/models"
)

// -----------------------------------------------------------------------------
// IFeatureStore persists the Features Table. Save replaces the whole table.
// -----------------------------------------------------------------------------

type IFeatureStore interface {

	// -----------------------------------------------------------------------------

	// Save replaces any previous table with rows.
	Save(rows []models.MDailyFeature) error

	// -----------------------------------------------------------------------------

	// Load returns every row ordered by ticker then as-of-date.
	Load() ([]models.MDailyFeature, error)

	// -----------------------------------------------------------------------------

	// Exists reports whether a table has been written.
	Exists() (bool, error)

	// -----------------------------------------------------------------------------

	// Location names where the table lives, for operator messages.
	Location() string

	// -----------------------------------------------------------------------------

	// Close the underlying connection, if any
	Close() error
}

// -----------------------------------------------------------------------------
// ISnapshotStore persists one Daily Snapshot per calendar day.
// -----------------------------------------------------------------------------

type ISnapshotStore interface {

	// Write replaces the snapshot for date and returns its path.
	Write(date time.Time, rows []models.MOptionContract) (string, error)

	// -----------------------------------------------------------------------------

	// List returns the snapshot paths in ascending date order.
	List() ([]string, error)

	// -----------------------------------------------------------------------------

	// Read loads a single snapshot file.
	Read(path string) ([]models.MOptionContract, error)

	// -----------------------------------------------------------------------------

	// ReadAll concatenates every snapshot in date order.
	ReadAll() ([]models.MOptionContract, error)

	// -----------------------------------------------------------------------------

	// Latest loads the most recent snapshot and its date.
	Latest() ([]models.MOptionContract, time.Time, error)
}
