package models

import "github.com/guregu/null/v6"

// -----------------------------------------------------------------------------
// Dashboard payloads
// -----------------------------------------------------------------------------

// MControls describes the selectable values and their defaults.
type MControls struct {
	Tickers       []string `json:"tickers"`
	DefaultTicker string   `json:"default_ticker"`
	MinDate       string   `json:"min_date"`
	MaxDate       string   `json:"max_date"`
	SnapshotDate  string   `json:"snapshot_date,omitempty"`
}

// MViewRequest is one control-change event.
type MViewRequest struct {
	Ticker string `json:"ticker" form:"ticker"`
	Start  string `json:"start" form:"start"`
	End    string `json:"end" form:"end"`
}

type MSeriesPoint struct {
	Date  string     `json:"date"`
	Value null.Float `json:"value"`
}

type MTickerRatio struct {
	Ticker       string     `json:"ticker"`
	AsOfDate     string     `json:"as_of_date"`
	PutCallRatio null.Float `json:"put_call_ratio"`
}

type MStrikeIV struct {
	Strike            null.Float `json:"strike"`
	ImpliedVolatility null.Float `json:"implied_volatility"`
	Type              string     `json:"type"`
	Expiry            string     `json:"expiry"`
}

type MContractDetail struct {
	ContractSymbol    null.String `json:"contract_symbol"`
	Type              null.String `json:"type"`
	Strike            null.Float  `json:"strike"`
	Expiry            null.String `json:"expiry"`
	LastPrice         null.Float  `json:"last_price"`
	ImpliedVolatility null.Float  `json:"implied_volatility"`
	Volume            null.Int    `json:"volume"`
	OpenInterest      null.Int    `json:"open_interest"`
}

// MDashboardViews holds every visual output for one control state.
type MDashboardViews struct {
	Ticker       string            `json:"ticker"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	IVMean       []MSeriesPoint    `json:"iv_mean"`
	VolumeTotal  []MSeriesPoint    `json:"volume_total"`
	PutCallRatio []MSeriesPoint    `json:"put_call_ratio"`
	CrossTicker  []MTickerRatio    `json:"cross_ticker_pcr"`
	StrikeIV     []MStrikeIV       `json:"strike_iv"`
	TopContracts []MContractDetail `json:"top_contracts"`
	SnapshotDate string            `json:"snapshot_date,omitempty"`
}

// MRunSummary counts what a fetcher run retrieved and skipped.
type MRunSummary struct {
	RunID           string `json:"run_id"`
	AsOfDate        string `json:"as_of_date"`
	TickersOK       int    `json:"tickers_ok"`
	TickersSkipped  int    `json:"tickers_skipped"`
	ExpiriesOK      int    `json:"expiries_ok"`
	ExpiriesSkipped int    `json:"expiries_skipped"`
	Rows            int    `json:"rows"`
	OutputPath      string `json:"output_path,omitempty"`
}

// MAggregateSummary describes one aggregator run.
type MAggregateSummary struct {
	RunID       string `json:"run_id"`
	Snapshots   int    `json:"snapshots"`
	InputRows   int    `json:"input_rows"`
	FeatureRows int    `json:"feature_rows"`
	Tickers     int    `json:"tickers"`
	Location    string `json:"location"`
}

// Websocket message types.
const (
	MessageControls = "controls"
	MessageViews    = "views"
	MessageError    = "error"
)

// MSocketMessage is the envelope sent to websocket clients.
type MSocketMessage struct {
	Type     string           `json:"type"`
	Controls *MControls       `json:"controls,omitempty"`
	Views    *MDashboardViews `json:"views,omitempty"`
	Error    string           `json:"error,omitempty"`
}
