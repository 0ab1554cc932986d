package storage

import (
	"time"

	"options-observer/src/models"

	"github.com/guregu/null/v6"
)

// -----------------------------------------------------------------------------
// Parquet row layouts. Column names follow the chain frames of the provider so
// the files stay readable from pandas.
// -----------------------------------------------------------------------------

type contractRecord struct {
	ContractSymbol    string   `parquet:"contractSymbol"`
	LastTradeDate     *int64   `parquet:"lastTradeDate"` // unix millis
	Strike            *float64 `parquet:"strike"`
	LastPrice         *float64 `parquet:"lastPrice"`
	Bid               *float64 `parquet:"bid"`
	Ask               *float64 `parquet:"ask"`
	Change            *float64 `parquet:"change"`
	PercentChange     *float64 `parquet:"percentChange"`
	Volume            *int64   `parquet:"volume"`
	OpenInterest      *int64   `parquet:"openInterest"`
	ImpliedVolatility *float64 `parquet:"impliedVolatility"`
	InTheMoney        bool     `parquet:"inTheMoney"`
	Currency          string   `parquet:"currency"`
	Type              string   `parquet:"type"`
	Expiry            string   `parquet:"expiry"`
	Ticker            string   `parquet:"ticker"`
	AsOfDate          string   `parquet:"as_of_date"`
}

type featureRecord struct {
	Ticker       string   `parquet:"ticker"`
	AsOfDate     string   `parquet:"as_of_date"`
	IVMean       *float64 `parquet:"IV_mean"`
	VolumeTotal  int64    `parquet:"Volume_total"`
	OITotal      int64    `parquet:"OI_total"`
	PutCallRatio *float64 `parquet:"PutCallRatio"`
}

// -----------------------------------------------------------------------------

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(models.DateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// -----------------------------------------------------------------------------

func toContractRecord(c models.MOptionContract) contractRecord {
	var lastTrade *int64
	if c.LastTradeDate.Valid {
		ms := c.LastTradeDate.Time.UnixMilli()
		lastTrade = &ms
	}

	return contractRecord{
		ContractSymbol:    c.ContractSymbol,
		LastTradeDate:     lastTrade,
		Strike:            c.Strike.Ptr(),
		LastPrice:         c.LastPrice.Ptr(),
		Bid:               c.Bid.Ptr(),
		Ask:               c.Ask.Ptr(),
		Change:            c.Change.Ptr(),
		PercentChange:     c.PercentChange.Ptr(),
		Volume:            c.Volume.Ptr(),
		OpenInterest:      c.OpenInterest.Ptr(),
		ImpliedVolatility: c.ImpliedVolatility.Ptr(),
		InTheMoney:        c.InTheMoney,
		Currency:          c.Currency,
		Type:              c.Type,
		Expiry:            formatDate(c.Expiry),
		Ticker:            c.Ticker,
		AsOfDate:          formatDate(c.AsOfDate),
	}
}

func fromContractRecord(r contractRecord) models.MOptionContract {
	var lastTrade null.Time
	if r.LastTradeDate != nil {
		lastTrade = null.TimeFrom(time.UnixMilli(*r.LastTradeDate).UTC())
	}

	return models.MOptionContract{
		Ticker:            r.Ticker,
		Expiry:            parseDate(r.Expiry),
		Type:              r.Type,
		ContractSymbol:    r.ContractSymbol,
		Strike:            null.FloatFromPtr(r.Strike),
		LastPrice:         null.FloatFromPtr(r.LastPrice),
		ImpliedVolatility: null.FloatFromPtr(r.ImpliedVolatility),
		Volume:            null.IntFromPtr(r.Volume),
		OpenInterest:      null.IntFromPtr(r.OpenInterest),
		Bid:               null.FloatFromPtr(r.Bid),
		Ask:               null.FloatFromPtr(r.Ask),
		Change:            null.FloatFromPtr(r.Change),
		PercentChange:     null.FloatFromPtr(r.PercentChange),
		InTheMoney:        r.InTheMoney,
		Currency:          r.Currency,
		LastTradeDate:     lastTrade,
		AsOfDate:          parseDate(r.AsOfDate),
	}
}

// -----------------------------------------------------------------------------

func toFeatureRecord(f models.MDailyFeature) featureRecord {
	return featureRecord{
		Ticker:       f.Ticker,
		AsOfDate:     formatDate(f.AsOfDate),
		IVMean:       f.IVMean.Ptr(),
		VolumeTotal:  f.VolumeTotal,
		OITotal:      f.OITotal,
		PutCallRatio: f.PutCallRatio.Ptr(),
	}
}

func fromFeatureRecord(r featureRecord) models.MDailyFeature {
	return models.MDailyFeature{
		Ticker:       r.Ticker,
		AsOfDate:     parseDate(r.AsOfDate),
		IVMean:       null.FloatFromPtr(r.IVMean),
		VolumeTotal:  r.VolumeTotal,
		OITotal:      r.OITotal,
		PutCallRatio: null.FloatFromPtr(r.PutCallRatio),
	}
}
