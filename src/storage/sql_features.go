package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/models"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const featuresTable = "options_features_daily"

var featureColumns = []string{"ticker", "as_of_date", "iv_mean", "volume_total", "oi_total", "put_call_ratio"}

// -----------------------------------------------------------------------------

// dialect captures the statements that differ between SQL backends.
type dialect struct {
	driver      string
	createTable string
	clearTable  string
	tableExists string
	placeholder func(n int) string
	// prepared INSERT rows are sent as one batch on commit
	batchInsert bool
}

var sqliteDialect = dialect{
	driver: "sqlite",
	createTable: `
		CREATE TABLE IF NOT EXISTS ` + featuresTable + ` (
			ticker TEXT NOT NULL,
			as_of_date TEXT NOT NULL,
			iv_mean REAL,
			volume_total INTEGER NOT NULL,
			oi_total INTEGER NOT NULL,
			put_call_ratio REAL,
			PRIMARY KEY (ticker, as_of_date)
		);`,
	clearTable:  "DELETE FROM " + featuresTable,
	tableExists: "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = '" + featuresTable + "'",
	placeholder: func(int) string { return "?" },
}

var postgresDialect = dialect{
	driver: "postgres",
	createTable: `
		CREATE TABLE IF NOT EXISTS ` + featuresTable + ` (
			ticker TEXT NOT NULL,
			as_of_date DATE NOT NULL,
			iv_mean DOUBLE PRECISION,
			volume_total BIGINT NOT NULL,
			oi_total BIGINT NOT NULL,
			put_call_ratio DOUBLE PRECISION,
			PRIMARY KEY (ticker, as_of_date)
		);`,
	clearTable:  "DELETE FROM " + featuresTable,
	tableExists: "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = '" + featuresTable + "'",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

var clickhouseDialect = dialect{
	driver: "clickhouse",
	createTable: `
		CREATE TABLE IF NOT EXISTS ` + featuresTable + ` (
			ticker String,
			as_of_date String,
			iv_mean Nullable(Float64),
			volume_total Int64,
			oi_total Int64,
			put_call_ratio Nullable(Float64)
		) ENGINE = MergeTree ORDER BY (ticker, as_of_date)`,
	clearTable:  "TRUNCATE TABLE IF EXISTS " + featuresTable,
	tableExists: "SELECT COUNT(*) FROM system.tables WHERE database = currentDatabase() AND name = '" + featuresTable + "'",
	placeholder: func(int) string { return "?" },
	batchInsert: true,
}

// -----------------------------------------------------------------------------

func (d dialect) insertQuery() string {
	query := fmt.Sprintf("INSERT INTO %s (%s)", featuresTable, strings.Join(featureColumns, ", "))
	if d.batchInsert {
		return query
	}

	marks := make([]string, len(featureColumns))
	for i := range marks {
		marks[i] = d.placeholder(i + 1)
	}
	return query + " VALUES (" + strings.Join(marks, ", ") + ")"
}

// -----------------------------------------------------------------------------

// SQLFeatureStore keeps the features table in a relational database. Every
// Save replaces the table content inside one transaction.
type SQLFeatureStore struct {
	DB       *sql.DB
	Logger   *logger.Logger
	dialect  dialect
	location string
}

// -----------------------------------------------------------------------------

func NewSQLiteFeatureStore(path string, log *logger.Logger) (*SQLFeatureStore, error) {
	store, err := openSQLFeatureStore(sqliteDialect, path, path, log)
	if err != nil {
		return nil, err
	}

	// :memory: databases are per connection
	store.DB.SetMaxOpenConns(1)

	if _, err := store.DB.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		store.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := store.DB.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		store.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	return store, nil
}

// -----------------------------------------------------------------------------

func NewPostgresFeatureStore(dsn string, log *logger.Logger) (*SQLFeatureStore, error) {
	return openSQLFeatureStore(postgresDialect, dsn, "postgres:"+featuresTable, log)
}

// -----------------------------------------------------------------------------

func NewClickHouseFeatureStore(dsn string, log *logger.Logger) (*SQLFeatureStore, error) {
	return openSQLFeatureStore(clickhouseDialect, dsn, "clickhouse:"+featuresTable, log)
}

// -----------------------------------------------------------------------------

func openSQLFeatureStore(d dialect, dsn, location string, log *logger.Logger) (*SQLFeatureStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("failed to open %s database", d.driver), err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, helpers.NewStorageError(fmt.Sprintf("failed to connect to %s database", d.driver), err)
	}

	return &SQLFeatureStore{
		DB:       db,
		Logger:   log,
		dialect:  d,
		location: location,
	}, nil
}

// -----------------------------------------------------------------------------

func (s *SQLFeatureStore) Location() string {
	return s.location
}

// -----------------------------------------------------------------------------

func (s *SQLFeatureStore) Save(rows []models.MDailyFeature) error {
	if _, err := s.DB.Exec(s.dialect.createTable); err != nil {
		return helpers.NewStorageError("failed to create features table", err)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return helpers.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// a batch transaction only accepts the INSERT itself
	clear := tx.Exec
	if s.dialect.batchInsert {
		clear = s.DB.Exec
	}
	if _, err := clear(s.dialect.clearTable); err != nil {
		return helpers.NewStorageError("failed to clear features table", err)
	}

	stmt, err := tx.Prepare(s.dialect.insertQuery())
	if err != nil {
		return helpers.NewStorageError("failed to prepare features insert", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(
			r.Ticker,
			formatDate(r.AsOfDate),
			r.IVMean.Ptr(),
			r.VolumeTotal,
			r.OITotal,
			r.PutCallRatio.Ptr(),
		)
		if err != nil {
			return helpers.NewStorageError(fmt.Sprintf("failed to insert features for %s", r.Ticker), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewStorageError("failed to commit features", err)
	}

	s.Logger.Info("Saved %d feature rows to %s", len(rows), s.location)
	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLFeatureStore) Exists() (bool, error) {
	var n int64
	if err := s.DB.QueryRow(s.dialect.tableExists).Scan(&n); err != nil {
		return false, helpers.NewStorageError("failed to check features table", err)
	}
	return n > 0, nil
}

// -----------------------------------------------------------------------------

// Load returns all feature rows ordered by (ticker, as_of_date).
func (s *SQLFeatureStore) Load() ([]models.MDailyFeature, error) {
	query := fmt.Sprintf(
		"SELECT ticker, CAST(as_of_date AS TEXT), iv_mean, volume_total, oi_total, put_call_ratio FROM %s ORDER BY ticker, as_of_date",
		featuresTable,
	)
	if s.dialect.driver == clickhouseDialect.driver {
		query = fmt.Sprintf("SELECT %s FROM %s ORDER BY ticker, as_of_date", strings.Join(featureColumns, ", "), featuresTable)
	}

	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, helpers.NewStorageError("failed to query features", err)
	}
	defer rows.Close()

	var out []models.MDailyFeature
	for rows.Next() {
		var (
			rec    featureRecord
			date   string
			ivMean sql.NullFloat64
			pcr    sql.NullFloat64
		)
		if err := rows.Scan(&rec.Ticker, &date, &ivMean, &rec.VolumeTotal, &rec.OITotal, &pcr); err != nil {
			return nil, helpers.NewStorageError("failed to scan features", err)
		}
		rec.AsOfDate = date
		if ivMean.Valid {
			rec.IVMean = &ivMean.Float64
		}
		if pcr.Valid {
			rec.PutCallRatio = &pcr.Float64
		}
		out = append(out, fromFeatureRecord(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, helpers.NewStorageError("failed to iterate features", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (s *SQLFeatureStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
