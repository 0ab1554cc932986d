package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// MDailyFeature is the per-ticker, per-day aggregate of a daily snapshot.
// At most one row exists for a (Ticker, AsOfDate) pair.
type MDailyFeature struct {
	Ticker       string     `json:"ticker"`
	AsOfDate     time.Time  `json:"as_of_date"`
	IVMean       null.Float `json:"iv_mean"`
	VolumeTotal  int64      `json:"volume_total"`
	OITotal      int64      `json:"oi_total"`
	PutCallRatio null.Float `json:"put_call_ratio"`
}
