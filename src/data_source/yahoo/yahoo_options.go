package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/interfaces"
	"options-observer/src/logger"
	"options-observer/src/models"

	"github.com/guregu/null/v6"
)

// YahooOptionsSource reads option chains from the Yahoo Finance v7 options endpoint.
// Every request carries a session crumb obtained once and refreshed on 401.
type YahooOptionsSource struct {
	Config    *models.MConfig
	BaseURL   string
	CookieURL string
	Network   interfaces.INetworkManager
	Logger    *logger.Logger

	crumbMu sync.Mutex
	crumb   string
}

// -----------------------------------------------------------------------------

func NewYahooOptionsSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *YahooOptionsSource {
	return &YahooOptionsSource{
		Config:  cfg,
		BaseURL:   strings.TrimRight(cfg.DataSource.BaseURL, "/"),
		CookieURL: cfg.DataSource.CookieURL,
		Network:   netMgr,
		Logger:    logger.NewLogger("YahooOptions"),
	}
}

// -----------------------------------------------------------------------------

func (s *YahooOptionsSource) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooContract struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            *float64 `json:"strike"`
	Currency          string   `json:"currency"`
	LastPrice         *float64 `json:"lastPrice"`
	Change            *float64 `json:"change"`
	PercentChange     *float64 `json:"percentChange"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"openInterest"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	ContractSize      string   `json:"contractSize"`
	Expiration        int64    `json:"expiration"`
	LastTradeDate     *int64   `json:"lastTradeDate"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	InTheMoney        bool     `json:"inTheMoney"`
}

type YahooOptionsResponse struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Options          []struct {
				ExpirationDate int64           `json:"expirationDate"`
				Calls          []yahooContract `json:"calls"`
				Puts           []yahooContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"optionChain"`

	// Auth and crumb failures come back under "finance" instead.
	Finance *struct {
		Error *yahooError `json:"error"`
	} `json:"finance"`
}

// -----------------------------------------------------------------------------

// sessionCrumb returns the cached crumb, running the cookie and crumb
// handshake first when there is none.
func (s *YahooOptionsSource) sessionCrumb(ctx context.Context) (string, error) {
	s.crumbMu.Lock()
	defer s.crumbMu.Unlock()

	if s.crumb != "" {
		return s.crumb, nil
	}

	if s.CookieURL != "" {
		// The cookie endpoint sets the session cookie even on an error status.
		if _, err := s.Network.Get(ctx, s.CookieURL, nil); err != nil && helpers.StatusCode(err) == 0 {
			return "", fmt.Errorf("cookie request failed: %w", err)
		}
	}

	body, err := s.Network.Get(ctx, s.BaseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", fmt.Errorf("crumb request failed: %w", err)
	}

	crumb := strings.TrimSpace(string(body))
	if crumb == "" || strings.ContainsAny(crumb, "<{ ") {
		return "", helpers.NewDataSourceError("yahoo returned no usable crumb", nil)
	}

	s.Logger.Debug("session crumb obtained")
	s.crumb = crumb
	return crumb, nil
}

// -----------------------------------------------------------------------------

func (s *YahooOptionsSource) dropCrumb(stale string) {
	s.crumbMu.Lock()
	if s.crumb == stale {
		s.crumb = ""
	}
	s.crumbMu.Unlock()
}

// -----------------------------------------------------------------------------

func (s *YahooOptionsSource) fetch(ctx context.Context, url string, params map[string]string) ([]byte, string, error) {
	crumb, err := s.sessionCrumb(ctx)
	if err != nil {
		return nil, "", err
	}

	q := make(map[string]string, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q["crumb"] = crumb

	body, err := s.Network.Get(ctx, url, q)
	return body, crumb, err
}

// -----------------------------------------------------------------------------

func (s *YahooOptionsSource) get(ctx context.Context, ticker string, params map[string]string) (*YahooOptionsResponse, error) {
	url := fmt.Sprintf("%s/v7/finance/options/%s", s.BaseURL, ticker)

	body, crumb, err := s.fetch(ctx, url, params)
	if helpers.StatusCode(err) == http.StatusUnauthorized {
		s.Logger.Warning("%s: crumb rejected, refreshing session", ticker)
		s.dropCrumb(crumb)
		body, _, err = s.fetch(ctx, url, params)
	}
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", ticker, err)
	}

	var resp YahooOptionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewDataSourceError("json unmarshal failed", err)
	}

	if e := resp.OptionChain.Error; e != nil {
		return nil, helpers.NewDataSourceError(fmt.Sprintf("yahoo api error: %s - %s", e.Code, e.Description), nil)
	}
	if resp.Finance != nil && resp.Finance.Error != nil {
		e := resp.Finance.Error
		return nil, helpers.NewDataSourceError(fmt.Sprintf("yahoo api error: %s - %s", e.Code, e.Description), nil)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, helpers.NewDataSourceError(fmt.Sprintf("no result in response for %s", ticker), nil)
	}

	return &resp, nil
}

// -----------------------------------------------------------------------------

// Expiries returns the listed expiries in provider order.
func (s *YahooOptionsSource) Expiries(ctx context.Context, ticker string) ([]time.Time, error) {
	resp, err := s.get(ctx, ticker, nil)
	if err != nil {
		return nil, err
	}

	dates := resp.OptionChain.Result[0].ExpirationDates
	expiries := make([]time.Time, 0, len(dates))
	for _, ts := range dates {
		expiries = append(expiries, models.TruncateToDate(time.Unix(ts, 0)))
	}

	s.Logger.Debug("%s: %d expiries listed", ticker, len(expiries))
	return expiries, nil
}

// -----------------------------------------------------------------------------

// Chain downloads the calls and puts for one expiry.
func (s *YahooOptionsSource) Chain(ctx context.Context, ticker string, expiry time.Time) ([]models.MOptionContract, []models.MOptionContract, error) {
	expiry = models.TruncateToDate(expiry)
	params := map[string]string{"date": strconv.FormatInt(expiry.Unix(), 10)}

	resp, err := s.get(ctx, ticker, params)
	if err != nil {
		return nil, nil, err
	}

	result := resp.OptionChain.Result[0]
	if len(result.Options) == 0 {
		return nil, nil, helpers.NewDataSourceError(fmt.Sprintf("no chain for %s %s", ticker, expiry.Format(models.DateLayout)), nil)
	}

	opts := result.Options[0]
	calls := convertContracts(ticker, expiry, models.OptionTypeCall, opts.Calls)
	puts := convertContracts(ticker, expiry, models.OptionTypePut, opts.Puts)

	s.Logger.Debug("%s %s: %d calls, %d puts", ticker, expiry.Format(models.DateLayout), len(calls), len(puts))
	return calls, puts, nil
}

// -----------------------------------------------------------------------------

func convertContracts(ticker string, expiry time.Time, optionType string, raw []yahooContract) []models.MOptionContract {
	out := make([]models.MOptionContract, 0, len(raw))
	for _, c := range raw {
		var lastTrade null.Time
		if c.LastTradeDate != nil {
			lastTrade = null.TimeFrom(time.Unix(*c.LastTradeDate, 0).UTC())
		}

		out = append(out, models.MOptionContract{
			Ticker:            ticker,
			Expiry:            expiry,
			Type:              optionType,
			ContractSymbol:    c.ContractSymbol,
			Strike:            null.FloatFromPtr(c.Strike),
			LastPrice:         null.FloatFromPtr(c.LastPrice),
			ImpliedVolatility: null.FloatFromPtr(c.ImpliedVolatility),
			Volume:            null.IntFromPtr(c.Volume),
			OpenInterest:      null.IntFromPtr(c.OpenInterest),
			Bid:               null.FloatFromPtr(c.Bid),
			Ask:               null.FloatFromPtr(c.Ask),
			Change:            null.FloatFromPtr(c.Change),
			PercentChange:     null.FloatFromPtr(c.PercentChange),
			InTheMoney:        c.InTheMoney,
			Currency:          c.Currency,
			LastTradeDate:     lastTrade,
		})
	}
	return out
}
