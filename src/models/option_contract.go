package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Contract types as stored in the "type" column.
const (
	OptionTypeCall = "call"
	OptionTypePut  = "put"
)

// DateLayout is the ISO calendar date used in file names and date columns.
const DateLayout = "2006-01-02"

// MOptionContract is one call or put captured for a ticker and expiry on AsOfDate.
type MOptionContract struct {
	Ticker            string     `json:"ticker"`
	Expiry            time.Time  `json:"expiry"`
	Type              string     `json:"type"`
	ContractSymbol    string     `json:"contract_symbol"`
	Strike            null.Float `json:"strike"`
	LastPrice         null.Float `json:"last_price"`
	ImpliedVolatility null.Float `json:"implied_volatility"`
	Volume            null.Int   `json:"volume"`
	OpenInterest      null.Int   `json:"open_interest"`
	Bid               null.Float `json:"bid"`
	Ask               null.Float `json:"ask"`
	Change            null.Float `json:"change"`
	PercentChange     null.Float `json:"percent_change"`
	InTheMoney        bool       `json:"in_the_money"`
	Currency          string     `json:"currency"`
	LastTradeDate     null.Time  `json:"last_trade_date"`
	AsOfDate          time.Time  `json:"as_of_date"`
}

// IsCall reports whether the contract is a call.
func (c MOptionContract) IsCall() bool {
	return c.Type == OptionTypeCall
}

// IsPut reports whether the contract is a put.
func (c MOptionContract) IsPut() bool {
	return c.Type == OptionTypePut
}

// TruncateToDate drops the clock part of t and normalizes it to UTC midnight.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
