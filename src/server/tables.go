package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/utils"

	"github.com/guregu/null/v6"
)

const topContractsLimit = 10

// -----------------------------------------------------------------------------
// Tables
// -----------------------------------------------------------------------------

// Tables is the read-only data the dashboard renders from. It is loaded once
// at startup; view computations are serialized.
type Tables struct {
	features     []models.MDailyFeature
	tickers      []string
	minDate      time.Time
	maxDate      time.Time
	snapshot     []models.MOptionContract
	snapshotDate time.Time

	mu sync.Mutex
}

// -----------------------------------------------------------------------------

// LoadTables reads the features table and the latest snapshot. A missing
// features table is fatal; a missing snapshot only empties the raw views.
func LoadTables(features interfaces.IFeatureStore, snapshots interfaces.ISnapshotStore, log *logger.Logger) (*Tables, error) {
	ok, err := features.Exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, helpers.NewMissingPrerequisiteError(features.Location(), utils.AggregatorBinary, nil)
	}

	rows, err := features.Load()
	if err != nil {
		return nil, err
	}

	var snapshot []models.MOptionContract
	var snapshotDate time.Time
	if snapshots != nil {
		snapshot, snapshotDate, err = snapshots.Latest()
		switch {
		case errors.Is(err, helpers.ErrNoSnapshots):
			log.Warning("No daily snapshot found, strike and detail views will be empty")
		case err != nil:
			log.Warning("Failed to load latest snapshot, strike and detail views will be empty: %v", err)
			snapshot, snapshotDate = nil, time.Time{}
		default:
			log.Info("Loaded %d contracts from snapshot %s", len(snapshot), snapshotDate.Format(models.DateLayout))
		}
	}

	t := NewTables(rows, snapshot, snapshotDate)
	log.Info("Loaded %d feature rows for %d tickers from %s", len(rows), len(t.tickers), features.Location())
	return t, nil
}

// -----------------------------------------------------------------------------

// NewTables indexes already loaded rows.
func NewTables(features []models.MDailyFeature, snapshot []models.MOptionContract, snapshotDate time.Time) *Tables {
	sorted := make([]models.MDailyFeature, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Ticker != sorted[j].Ticker {
			return sorted[i].Ticker < sorted[j].Ticker
		}
		return sorted[i].AsOfDate.Before(sorted[j].AsOfDate)
	})

	t := &Tables{
		features:     sorted,
		snapshot:     snapshot,
		snapshotDate: snapshotDate,
	}

	seen := make(map[string]struct{})
	for _, f := range sorted {
		if _, ok := seen[f.Ticker]; !ok {
			seen[f.Ticker] = struct{}{}
			t.tickers = append(t.tickers, f.Ticker)
		}
		if t.minDate.IsZero() || f.AsOfDate.Before(t.minDate) {
			t.minDate = f.AsOfDate
		}
		if f.AsOfDate.After(t.maxDate) {
			t.maxDate = f.AsOfDate
		}
	}
	return t
}

// -----------------------------------------------------------------------------

// Controls returns the selectable tickers and the default control state.
func (t *Tables) Controls() models.MControls {
	c := models.MControls{
		Tickers:      append([]string(nil), t.tickers...),
		MinDate:      formatDate(t.minDate),
		MaxDate:      formatDate(t.maxDate),
		SnapshotDate: formatDate(t.snapshotDate),
	}
	if len(t.tickers) > 0 {
		c.DefaultTicker = t.tickers[0]
	}
	return c
}

// -----------------------------------------------------------------------------

// Views computes every visual output for one control state. Blank fields fall
// back to the defaults of Controls.
func (t *Tables) Views(req models.MViewRequest) (models.MDashboardViews, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ticker, start, end, err := t.resolve(req)
	if err != nil {
		return models.MDashboardViews{}, err
	}

	views := models.MDashboardViews{
		Ticker:       ticker,
		Start:        formatDate(start),
		End:          formatDate(end),
		IVMean:       []models.MSeriesPoint{},
		VolumeTotal:  []models.MSeriesPoint{},
		PutCallRatio: []models.MSeriesPoint{},
		SnapshotDate: formatDate(t.snapshotDate),
	}

	for _, f := range t.features {
		if f.Ticker != ticker || f.AsOfDate.Before(start) || f.AsOfDate.After(end) {
			continue
		}
		date := formatDate(f.AsOfDate)
		views.IVMean = append(views.IVMean, models.MSeriesPoint{Date: date, Value: f.IVMean})
		views.VolumeTotal = append(views.VolumeTotal, models.MSeriesPoint{Date: date, Value: null.FloatFrom(float64(f.VolumeTotal))})
		views.PutCallRatio = append(views.PutCallRatio, models.MSeriesPoint{Date: date, Value: f.PutCallRatio})
	}

	views.CrossTicker = t.crossTickerRatios(end)
	views.StrikeIV = t.strikeIV(ticker)
	views.TopContracts = t.topContracts(ticker)
	return views, nil
}

// -----------------------------------------------------------------------------

func (t *Tables) resolve(req models.MViewRequest) (string, time.Time, time.Time, error) {
	ticker := req.Ticker
	if ticker == "" && len(t.tickers) > 0 {
		ticker = t.tickers[0]
	}
	if ticker != "" && !contains(t.tickers, ticker) {
		return "", time.Time{}, time.Time{}, helpers.NewValidationError(fmt.Sprintf("unknown ticker %q", ticker))
	}

	start, err := parseDateOr(req.Start, t.minDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	end, err := parseDateOr(req.End, t.maxDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return ticker, start, end, nil
}

// -----------------------------------------------------------------------------

// crossTickerRatios picks, per ticker, the most recent row dated on or before end.
func (t *Tables) crossTickerRatios(end time.Time) []models.MTickerRatio {
	latest := make(map[string]models.MDailyFeature)
	for _, f := range t.features {
		if f.AsOfDate.After(end) {
			continue
		}
		if cur, ok := latest[f.Ticker]; !ok || f.AsOfDate.After(cur.AsOfDate) {
			latest[f.Ticker] = f
		}
	}

	out := make([]models.MTickerRatio, 0, len(latest))
	for _, ticker := range t.tickers {
		if f, ok := latest[ticker]; ok {
			out = append(out, models.MTickerRatio{
				Ticker:       f.Ticker,
				AsOfDate:     formatDate(f.AsOfDate),
				PutCallRatio: f.PutCallRatio,
			})
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func (t *Tables) strikeIV(ticker string) []models.MStrikeIV {
	out := []models.MStrikeIV{}
	for _, c := range t.snapshot {
		if c.Ticker != ticker {
			continue
		}
		out = append(out, models.MStrikeIV{
			Strike:            c.Strike,
			ImpliedVolatility: c.ImpliedVolatility,
			Type:              c.Type,
			Expiry:            formatDate(c.Expiry),
		})
	}
	return out
}

// -----------------------------------------------------------------------------

// topContracts returns the most traded contracts of ticker in the latest
// snapshot. Contracts without a volume sort last.
func (t *Tables) topContracts(ticker string) []models.MContractDetail {
	var rows []models.MOptionContract
	for _, c := range t.snapshot {
		if c.Ticker == ticker {
			rows = append(rows, c)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		vi, vj := rows[i].Volume, rows[j].Volume
		if vi.Valid != vj.Valid {
			return vi.Valid
		}
		return vi.Int64 > vj.Int64
	})
	if len(rows) > topContractsLimit {
		rows = rows[:topContractsLimit]
	}

	out := make([]models.MContractDetail, len(rows))
	for i, c := range rows {
		out[i] = models.MContractDetail{
			ContractSymbol:    nullString(c.ContractSymbol),
			Type:              nullString(c.Type),
			Strike:            c.Strike,
			Expiry:            nullString(formatDate(c.Expiry)),
			LastPrice:         c.LastPrice,
			ImpliedVolatility: c.ImpliedVolatility,
			Volume:            c.Volume,
			OpenInterest:      c.OpenInterest,
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// Len returns the number of feature rows.
func (t *Tables) Len() int {
	return len(t.features)
}
