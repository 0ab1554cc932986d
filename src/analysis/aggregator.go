package analysis

import (
	"context"
	"errors"
	"sort"
	"time"

	"options-observer/src/analysis/core"
	"options-observer/src/helpers"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/notify"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
)

type groupKey struct {
	ticker string
	date   time.Time
}

// -----------------------------------------------------------------------------

// BuildFeatures reduces contract rows to one feature row per (ticker, as-of
// date), sorted by ticker then date.
func BuildFeatures(rows []models.MOptionContract) []models.MDailyFeature {
	type accum struct {
		iv       []null.Float
		callVol  []null.Int
		putVol   []null.Int
		interest []null.Int
	}

	groups := make(map[groupKey]*accum)
	for _, r := range rows {
		key := groupKey{ticker: r.Ticker, date: models.TruncateToDate(r.AsOfDate)}
		g, ok := groups[key]
		if !ok {
			g = &accum{}
			groups[key] = g
		}

		g.iv = append(g.iv, r.ImpliedVolatility)
		g.interest = append(g.interest, r.OpenInterest)
		switch {
		case r.IsCall():
			g.callVol = append(g.callVol, r.Volume)
		case r.IsPut():
			g.putVol = append(g.putVol, r.Volume)
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ticker != keys[j].ticker {
			return keys[i].ticker < keys[j].ticker
		}
		return keys[i].date.Before(keys[j].date)
	})

	features := make([]models.MDailyFeature, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		callVolume := core.SumTreatingNullAsZero(g.callVol)
		putVolume := core.SumTreatingNullAsZero(g.putVol)

		features = append(features, models.MDailyFeature{
			Ticker:       k.ticker,
			AsOfDate:     k.date,
			IVMean:       core.NullableMean(g.iv),
			VolumeTotal:  callVolume + putVolume,
			OITotal:      core.SumTreatingNullAsZero(g.interest),
			PutCallRatio: core.SafeRatio(putVolume, callVolume),
		})
	}
	return features
}

// -----------------------------------------------------------------------------

// Aggregator rebuilds the features table from every daily snapshot on disk.
type Aggregator struct {
	Snapshots interfaces.ISnapshotStore
	Features  interfaces.IFeatureStore
	Notifier  interfaces.INotifier
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAggregator(snapshots interfaces.ISnapshotStore, features interfaces.IFeatureStore, notifier interfaces.INotifier, log *logger.Logger) *Aggregator {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Aggregator{
		Snapshots: snapshots,
		Features:  features,
		Notifier:  notifier,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Run recomputes and replaces the features table. When no snapshot exists it
// writes nothing and returns helpers.ErrNoSnapshots.
func (a *Aggregator) Run(ctx context.Context) (models.MAggregateSummary, error) {
	summary := models.MAggregateSummary{
		RunID:    uuid.NewString(),
		Location: a.Features.Location(),
	}
	a.Logger.Info("Aggregation run %s started", summary.RunID)

	paths, err := a.Snapshots.List()
	if err != nil {
		return summary, err
	}
	summary.Snapshots = len(paths)

	rows, err := a.Snapshots.ReadAll()
	if errors.Is(err, helpers.ErrNoSnapshots) {
		a.Logger.Warning("No daily snapshots found. Run the fetcher first.")
		return summary, err
	}
	if err != nil {
		return summary, err
	}
	summary.InputRows = len(rows)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	features := BuildFeatures(rows)
	if err := a.Features.Save(features); err != nil {
		return summary, err
	}
	summary.FeatureRows = len(features)
	summary.Tickers = countTickers(features)

	a.Logger.Info("Aggregated %d rows from %d snapshots into %d feature rows for %d tickers at %s",
		summary.InputRows, summary.Snapshots, summary.FeatureRows, summary.Tickers, summary.Location)

	if err := a.Notifier.Notify(ctx, notify.FormatAggregateSummary(summary)); err != nil {
		a.Logger.Warning("Failed to send aggregation summary: %v", err)
	}
	return summary, nil
}

// -----------------------------------------------------------------------------

func countTickers(features []models.MDailyFeature) int {
	seen := make(map[string]struct{})
	for _, f := range features {
		seen[f.Ticker] = struct{}{}
	}
	return len(seen)
}
