// Package extract captures the daily options chain snapshot.
package extract

import (
	"context"
	"fmt"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/notify"
	"options-observer/src/utils"

	"github.com/google/uuid"
)

// Fetcher downloads the near-term chains for every configured ticker and
// persists them as the snapshot of the current UTC day.
type Fetcher struct {
	Config    *models.MConfig
	Provider  interfaces.IOptionsProvider
	Snapshots interfaces.ISnapshotStore
	Notifier  interfaces.INotifier
	Scheduler *utils.MarketScheduler // consulted only with skip_non_trading_days
	Retry     *helpers.RetryPolicy
	Sleep     helpers.SleepFunc
	Now       func() time.Time
	Logger    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFetcher(
	cfg *models.MConfig,
	provider interfaces.IOptionsProvider,
	snapshots interfaces.ISnapshotStore,
	notifier interfaces.INotifier,
	log *logger.Logger,
) *Fetcher {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Fetcher{
		Config:    cfg,
		Provider:  provider,
		Snapshots: snapshots,
		Notifier:  notifier,
		Retry:     helpers.NewRetryPolicy(cfg.Fetcher.MaxRetries, cfg.Fetcher.RetryBackoff, log),
		Sleep:     helpers.Sleep,
		Now:       time.Now,
		Logger:    log,
	}
}

// -----------------------------------------------------------------------------

// Run performs one capture. Per-ticker and per-expiry failures are logged and
// skipped. When nothing was retrieved no file is written and
// helpers.ErrNoChains is returned.
func (f *Fetcher) Run(ctx context.Context) (models.MRunSummary, error) {
	asOf := models.TruncateToDate(f.Now())
	summary := models.MRunSummary{
		RunID:    uuid.NewString(),
		AsOfDate: asOf.Format(models.DateLayout),
	}
	f.Logger.Info("Fetch run %s for %s started (%d tickers, source %s)",
		summary.RunID, summary.AsOfDate, len(f.Config.DataSource.Tickers), f.Provider.Name())

	if f.Config.Fetcher.SkipNonTradingDays && f.Scheduler != nil && !f.Scheduler.AnyTradingDay(asOf) {
		f.Logger.Warning("%s is not a trading day on any tracked exchange, skipping", summary.AsOfDate)
		return summary, nil
	}

	var all []models.MOptionContract
	for _, ticker := range f.Config.DataSource.Tickers {
		rows, err := f.fetchTicker(ctx, ticker, &summary)
		if err != nil {
			return summary, err
		}
		all = append(all, rows...)

		if err := f.Sleep(ctx, f.Config.Fetcher.SleepBetweenTickers); err != nil {
			return summary, err
		}
	}

	if len(all) == 0 {
		f.Logger.Warning("No option chains retrieved for %s, nothing saved", summary.AsOfDate)
		f.notify(ctx, summary)
		return summary, helpers.ErrNoChains
	}

	for i := range all {
		all[i].AsOfDate = asOf
	}

	path, err := f.Snapshots.Write(asOf, all)
	if err != nil {
		return summary, err
	}
	summary.Rows = len(all)
	summary.OutputPath = path

	f.Logger.Info("Fetch run %s done: tickers %d ok / %d skipped, expiries %d ok / %d skipped, %d rows",
		summary.RunID, summary.TickersOK, summary.TickersSkipped, summary.ExpiriesOK, summary.ExpiriesSkipped, summary.Rows)
	f.notify(ctx, summary)
	return summary, nil
}

// -----------------------------------------------------------------------------

// fetchTicker returns the chains of the first max_expiries expiries. Only a
// cancelled context is reported as an error.
func (f *Fetcher) fetchTicker(ctx context.Context, ticker string, summary *models.MRunSummary) ([]models.MOptionContract, error) {
	var expiries []time.Time
	err := f.Retry.Do(ctx, fmt.Sprintf("expiries for %s", ticker), func(ctx context.Context) error {
		var err error
		expiries, err = f.Provider.Expiries(ctx, ticker)
		return err
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		f.Logger.Error("Skipping %s: %v", ticker, err)
		summary.TickersSkipped++
		return nil, nil
	}
	if len(expiries) == 0 {
		f.Logger.Warning("Skipping %s: no expiries listed", ticker)
		summary.TickersSkipped++
		return nil, nil
	}

	if limit := f.Config.Fetcher.MaxExpiries; len(expiries) > limit {
		expiries = expiries[:limit]
	}
	summary.TickersOK++

	var rows []models.MOptionContract
	for _, expiry := range expiries {
		label := fmt.Sprintf("%s %s", ticker, expiry.Format(models.DateLayout))

		var calls, puts []models.MOptionContract
		err := f.Retry.Do(ctx, "chain "+label, func(ctx context.Context) error {
			var err error
			calls, puts, err = f.Provider.Chain(ctx, ticker, expiry)
			return err
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err != nil {
			f.Logger.Error("Skipping %s: %v", label, err)
			summary.ExpiriesSkipped++
		} else {
			f.Logger.Debug("Fetched %s: %d calls, %d puts", label, len(calls), len(puts))
			rows = append(rows, calls...)
			rows = append(rows, puts...)
			summary.ExpiriesOK++
		}

		if err := f.Sleep(ctx, f.Config.Fetcher.SleepBetweenExpiries); err != nil {
			return nil, err
		}
	}

	return rows, nil
}

// -----------------------------------------------------------------------------

func (f *Fetcher) notify(ctx context.Context, summary models.MRunSummary) {
	if err := f.Notifier.Notify(ctx, notify.FormatFetchSummary(summary)); err != nil {
		f.Logger.Warning("Failed to send fetch summary: %v", err)
	}
}
