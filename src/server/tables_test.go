package server

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/models"

	"github.com/guregu/null/v6"
)

func testLogger() *logger.Logger {
	return logger.NewLoggerTo(io.Discard, "dashboard-test")
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func feature(ticker, date string, pcr null.Float, volume int64) models.MDailyFeature {
	return models.MDailyFeature{
		Ticker:       ticker,
		AsOfDate:     day(date),
		IVMean:       null.FloatFrom(0.3),
		VolumeTotal:  volume,
		PutCallRatio: pcr,
	}
}

func sampleTables() *Tables {
	features := []models.MDailyFeature{
		feature("MSFT", "2024-01-01", null.FloatFrom(0.9), 10),
		feature("AAPL", "2024-01-01", null.FloatFrom(0.5), 150),
		feature("AAPL", "2024-01-02", null.FloatFrom(0.6), 200),
		feature("AAPL", "2024-01-03", null.FloatFrom(0.7), 250),
		feature("MSFT", "2024-01-03", null.Float{}, 30),
		feature("TSLA", "2024-01-04", null.FloatFrom(1.2), 5),
	}

	var snapshot []models.MOptionContract
	for i := 0; i < 12; i++ {
		snapshot = append(snapshot, models.MOptionContract{
			Ticker:            "AAPL",
			Type:              models.OptionTypeCall,
			ContractSymbol:    fmt.Sprintf("AAPL-%02d", i),
			Strike:            null.FloatFrom(float64(100 + i)),
			ImpliedVolatility: null.FloatFrom(0.2 + float64(i)/100),
			Volume:            null.IntFrom(int64(i * 10)),
			Expiry:            day("2024-01-19"),
		})
	}
	snapshot = append(snapshot,
		models.MOptionContract{Ticker: "AAPL", Type: models.OptionTypePut, ContractSymbol: "AAPL-NOVOL", Strike: null.FloatFrom(90)},
		models.MOptionContract{Ticker: "MSFT", Type: models.OptionTypePut, ContractSymbol: "MSFT-01", Strike: null.FloatFrom(300), Volume: null.IntFrom(1000)},
	)

	return NewTables(features, snapshot, day("2024-01-04"))
}

// -----------------------------------------------------------------------------

func TestControlsDefaults(t *testing.T) {
	c := sampleTables().Controls()

	if strings.Join(c.Tickers, ",") != "AAPL,MSFT,TSLA" {
		t.Errorf("tickers = %v", c.Tickers)
	}
	if c.DefaultTicker != "AAPL" {
		t.Errorf("default ticker = %s", c.DefaultTicker)
	}
	if c.MinDate != "2024-01-01" || c.MaxDate != "2024-01-04" {
		t.Errorf("range = %s..%s", c.MinDate, c.MaxDate)
	}
	if c.SnapshotDate != "2024-01-04" {
		t.Errorf("snapshot date = %s", c.SnapshotDate)
	}
}

// -----------------------------------------------------------------------------

func TestViewsDateRange(t *testing.T) {
	v, err := sampleTables().Views(models.MViewRequest{Ticker: "AAPL", Start: "2024-01-02", End: "2024-01-03"})
	if err != nil {
		t.Fatal(err)
	}

	if len(v.IVMean) != 2 || v.IVMean[0].Date != "2024-01-02" || v.IVMean[1].Date != "2024-01-03" {
		t.Errorf("iv series = %+v", v.IVMean)
	}
	if v.VolumeTotal[0].Value.Float64 != 200 {
		t.Errorf("volume series = %+v", v.VolumeTotal)
	}
	if v.PutCallRatio[1].Value.Float64 != 0.7 {
		t.Errorf("pcr series = %+v", v.PutCallRatio)
	}
}

// -----------------------------------------------------------------------------

func TestViewsCrossTickerUsesLatestOnOrBeforeEnd(t *testing.T) {
	v, err := sampleTables().Views(models.MViewRequest{Ticker: "MSFT", End: "2024-01-02"})
	if err != nil {
		t.Fatal(err)
	}

	// TSLA has no row on or before the end date
	if len(v.CrossTicker) != 2 {
		t.Fatalf("cross ticker = %+v", v.CrossTicker)
	}
	aapl, msft := v.CrossTicker[0], v.CrossTicker[1]
	if aapl.Ticker != "AAPL" || aapl.AsOfDate != "2024-01-02" || aapl.PutCallRatio.Float64 != 0.6 {
		t.Errorf("AAPL ratio = %+v", aapl)
	}
	if msft.Ticker != "MSFT" || msft.AsOfDate != "2024-01-01" || msft.PutCallRatio.Float64 != 0.9 {
		t.Errorf("MSFT ratio = %+v", msft)
	}

	all, err := sampleTables().Views(models.MViewRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.CrossTicker) != 3 || all.CrossTicker[1].PutCallRatio.Valid {
		t.Errorf("cross ticker at max date = %+v", all.CrossTicker)
	}
}

// -----------------------------------------------------------------------------

func TestViewsTopContracts(t *testing.T) {
	v, err := sampleTables().Views(models.MViewRequest{Ticker: "AAPL"})
	if err != nil {
		t.Fatal(err)
	}

	if len(v.TopContracts) != topContractsLimit {
		t.Fatalf("got %d detail rows", len(v.TopContracts))
	}
	first := v.TopContracts[0]
	if first.ContractSymbol.String != "AAPL-11" || first.Volume.Int64 != 110 {
		t.Errorf("first row = %+v", first)
	}
	for i := 1; i < len(v.TopContracts); i++ {
		if v.TopContracts[i].Volume.Int64 > v.TopContracts[i-1].Volume.Int64 {
			t.Errorf("rows not sorted by volume at %d", i)
		}
	}
	for _, row := range v.TopContracts {
		if !strings.HasPrefix(row.ContractSymbol.String, "AAPL") {
			t.Errorf("foreign contract in detail table: %+v", row)
		}
	}

	if len(v.StrikeIV) != 13 {
		t.Errorf("strike scatter has %d points, want 13", len(v.StrikeIV))
	}
}

// -----------------------------------------------------------------------------

func TestViewsNullVolumeSortsLast(t *testing.T) {
	tables := NewTables(
		[]models.MDailyFeature{feature("AAPL", "2024-01-01", null.Float{}, 0)},
		[]models.MOptionContract{
			{Ticker: "AAPL", ContractSymbol: "A"},
			{Ticker: "AAPL", ContractSymbol: "B", Volume: null.IntFrom(0)},
			{Ticker: "AAPL", ContractSymbol: "C", Volume: null.IntFrom(5)},
		},
		day("2024-01-01"),
	)

	v, err := tables.Views(models.MViewRequest{})
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, r := range v.TopContracts {
		order = append(order, r.ContractSymbol.String)
	}
	if strings.Join(order, "") != "CBA" {
		t.Errorf("order = %v", order)
	}
	if v.TopContracts[2].Volume.Valid || v.TopContracts[2].Type.Valid || v.TopContracts[2].Expiry.Valid {
		t.Errorf("missing values should be null: %+v", v.TopContracts[2])
	}
	if v.TopContracts[2].Strike.Valid || v.TopContracts[2].LastPrice.Valid {
		t.Errorf("missing strike and last price should be null, not zero: %+v", v.TopContracts[2])
	}
	if len(v.StrikeIV) != 3 || v.StrikeIV[0].Strike.Valid {
		t.Errorf("scatter point without a strike should carry null: %+v", v.StrikeIV)
	}
}

// -----------------------------------------------------------------------------

func TestViewsWithoutSnapshot(t *testing.T) {
	tables := NewTables([]models.MDailyFeature{feature("AAPL", "2024-01-01", null.Float{}, 0)}, nil, time.Time{})

	v, err := tables.Views(models.MViewRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.StrikeIV) != 0 || len(v.TopContracts) != 0 || v.SnapshotDate != "" {
		t.Errorf("raw views should be empty: %+v", v)
	}
	if len(v.IVMean) != 1 {
		t.Errorf("feature views should still render: %+v", v.IVMean)
	}
}

// -----------------------------------------------------------------------------

func TestViewsRejectsBadInput(t *testing.T) {
	tables := sampleTables()
	for _, req := range []models.MViewRequest{
		{Ticker: "NOPE"},
		{Start: "yesterday"},
		{End: "2024-13-01"},
		{Start: "2024-01-02garbage"},
	} {
		_, err := tables.Views(req)
		var verr *helpers.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Views(%+v) err = %v, want ValidationError", req, err)
		}
	}
}

// -----------------------------------------------------------------------------

func TestParseDateOr(t *testing.T) {
	fallback := day("2024-01-01")
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "2024-01-01", false},
		{" 2024-01-03 ", "2024-01-03", false},
		{"2024-01-03T00:00:00", "2024-01-03", false},
		{"2024-01-03T09:30:00.000Z", "2024-01-03", false},
		{"2024-01-03garbage", "", true},
		{"2024-01-03 10:00", "", true},
		{"01/03/2024", "", true},
	}

	for _, tt := range tests {
		got, err := parseDateOr(tt.in, fallback)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDateOr(%q) = %s, want error", tt.in, got)
			}
			continue
		}
		if err != nil || formatDate(got) != tt.want {
			t.Errorf("parseDateOr(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

// -----------------------------------------------------------------------------

type fakeFeatureStore struct {
	exists bool
	rows   []models.MDailyFeature
}

func (f *fakeFeatureStore) Save([]models.MDailyFeature) error { return nil }
func (f *fakeFeatureStore) Load() ([]models.MDailyFeature, error) { return f.rows, nil }
func (f *fakeFeatureStore) Exists() (bool, error) { return f.exists, nil }
func (f *fakeFeatureStore) Location() string { return "data/options/features/options_features_daily.parquet" }
func (f *fakeFeatureStore) Close() error { return nil }

type fakeSnapshotStore struct {
	rows []models.MOptionContract
	date time.Time
	err  error
}

func (f *fakeSnapshotStore) Write(time.Time, []models.MOptionContract) (string, error) {
	return "", nil
}
func (f *fakeSnapshotStore) List() ([]string, error) { return nil, nil }
func (f *fakeSnapshotStore) Read(string) ([]models.MOptionContract, error) { return nil, nil }
func (f *fakeSnapshotStore) ReadAll() ([]models.MOptionContract, error) { return nil, nil }
func (f *fakeSnapshotStore) Latest() ([]models.MOptionContract, time.Time, error) {
	return f.rows, f.date, f.err
}

func TestLoadTablesMissingFeatures(t *testing.T) {
	_, err := LoadTables(&fakeFeatureStore{}, &fakeSnapshotStore{}, testLogger())

	var missing *helpers.MissingPrerequisiteError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingPrerequisiteError", err)
	}
	if !strings.Contains(err.Error(), "aggregator") {
		t.Errorf("message should name the aggregator: %s", err)
	}
}

func TestLoadTablesDegradesWithoutSnapshot(t *testing.T) {
	store := &fakeFeatureStore{exists: true, rows: []models.MDailyFeature{feature("AAPL", "2024-01-01", null.Float{}, 1)}}

	tables, err := LoadTables(store, &fakeSnapshotStore{err: helpers.ErrNoSnapshots}, testLogger())
	if err != nil {
		t.Fatalf("LoadTables: %v", err)
	}
	if c := tables.Controls(); c.SnapshotDate != "" || c.DefaultTicker != "AAPL" {
		t.Errorf("controls = %+v", c)
	}
}
