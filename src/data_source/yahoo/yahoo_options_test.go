package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"options-observer/src/helpers"
	"options-observer/src/logger"
	"options-observer/src/models"
	"options-observer/src/network"
)

type fakeNetwork struct {
	bodies map[string][]byte
	err    error
	calls  []map[string]string
}

func (f *fakeNetwork) Get(ctx context.Context, url string, params map[string]string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if strings.HasSuffix(url, "/getcrumb") {
		return []byte("test-crumb"), nil
	}
	f.calls = append(f.calls, params)
	return f.bodies[params["date"]], nil
}

const listBody = `{"optionChain":{"result":[{"underlyingSymbol":"AAPL",
  "expirationDates":[1704412800,1705017600,1705622400,1706227200],
  "options":[]}],"error":null}}`

const chainBody = `{"optionChain":{"result":[{"underlyingSymbol":"AAPL",
  "expirationDates":[1704412800],
  "options":[{"expirationDate":1704412800,
    "calls":[{"contractSymbol":"AAPL240105C00190000","strike":190,"currency":"USD","lastPrice":3.1,
              "volume":100,"openInterest":1200,"impliedVolatility":0.25,"inTheMoney":false,"lastTradeDate":1704300000}],
    "puts":[{"contractSymbol":"AAPL240105P00190000","strike":190,"currency":"USD","lastPrice":2.2,
             "openInterest":800,"impliedVolatility":0.27,"inTheMoney":true}]}]}],"error":null}}`

func newSource(net *fakeNetwork) *YahooOptionsSource {
	cfg := &models.MConfig{DataSource: models.MDataSourceConfig{BaseURL: "http://yahoo.test/"}}
	return NewYahooOptionsSource(cfg, net)
}

func TestExpiriesKeepsProviderOrder(t *testing.T) {
	net := &fakeNetwork{bodies: map[string][]byte{"": []byte(listBody)}}
	got, err := newSource(net).Expiries(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Expiries: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d expiries, want 4", len(got))
	}
	if got[0].Format(models.DateLayout) != "2024-01-05" {
		t.Errorf("first expiry = %s", got[0].Format(models.DateLayout))
	}
	if !got[0].Before(got[1]) {
		t.Error("expected ascending provider order")
	}
}

func TestChainConvertsContracts(t *testing.T) {
	net := &fakeNetwork{bodies: map[string][]byte{"1704412800": []byte(chainBody)}}
	expiry := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	calls, puts, err := newSource(net).Chain(context.Background(), "AAPL", expiry)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(calls) != 1 || len(puts) != 1 {
		t.Fatalf("got %d calls / %d puts", len(calls), len(puts))
	}

	c := calls[0]
	if c.Type != models.OptionTypeCall || c.Ticker != "AAPL" || !c.Expiry.Equal(expiry) {
		t.Errorf("unexpected call identity: %+v", c)
	}
	if !c.Volume.Valid || c.Volume.Int64 != 100 {
		t.Errorf("call volume = %+v", c.Volume)
	}
	if !c.LastTradeDate.Valid {
		t.Error("expected last trade date")
	}

	p := puts[0]
	if p.Type != models.OptionTypePut {
		t.Errorf("put type = %s", p.Type)
	}
	if p.Volume.Valid {
		t.Error("missing volume should be null")
	}
	if !p.ImpliedVolatility.Valid || p.ImpliedVolatility.Float64 != 0.27 {
		t.Errorf("put iv = %+v", p.ImpliedVolatility)
	}
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"chain error", `{"optionChain":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`},
		{"finance error", `{"finance":{"result":null,"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`},
		{"empty result", `{"optionChain":{"result":[],"error":null}}`},
		{"bad json", `{"optionChain":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := &fakeNetwork{bodies: map[string][]byte{"": []byte(tt.body)}}
			_, err := newSource(net).Expiries(context.Background(), "AAPL")
			var dsErr *helpers.DataSourceError
			if !errors.As(err, &dsErr) {
				t.Fatalf("expected DataSourceError, got %v", err)
			}
		})
	}
}

func TestChainWithoutOptionsBlock(t *testing.T) {
	net := &fakeNetwork{bodies: map[string][]byte{"1704412800": []byte(listBody)}}
	_, _, err := newSource(net).Chain(context.Background(), "AAPL", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("expected error for missing options block")
	}
}

func TestNetworkFailurePropagates(t *testing.T) {
	net := &fakeNetwork{err: helpers.NewNetworkError("timeout", nil)}
	_, err := newSource(net).Expiries(context.Background(), "AAPL")
	var netErr *helpers.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestRequestsCarryCrumb(t *testing.T) {
	net := &fakeNetwork{bodies: map[string][]byte{"": []byte(listBody)}}
	if _, err := newSource(net).Expiries(context.Background(), "AAPL"); err != nil {
		t.Fatal(err)
	}
	if len(net.calls) != 1 || net.calls[0]["crumb"] != "test-crumb" {
		t.Errorf("calls = %v", net.calls)
	}
}

// -----------------------------------------------------------------------------

// crumbServer hands out a session cookie and only answers option requests
// that carry both the cookie and the current crumb.
type crumbServer struct {
	mu         sync.Mutex
	crumb      string
	crumbCalls int
}

func (cs *crumbServer) setCrumb(c string) {
	cs.mu.Lock()
	cs.crumb = c
	cs.mu.Unlock()
}

func (cs *crumbServer) fetches() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.crumbCalls
}

func (cs *crumbServer) handler() http.Handler {
	hasSession := func(r *http.Request) bool {
		c, err := r.Cookie("A3")
		return err == nil && c.Value == "session"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		if !hasSession(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.crumbCalls++
		fmt.Fprint(w, cs.crumb)
	})
	mux.HandleFunc("/v7/finance/options/AAPL", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		crumb := cs.crumb
		cs.mu.Unlock()
		if !hasSession(r) || r.URL.Query().Get("crumb") != crumb {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"finance":{"result":null,"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`)
			return
		}
		fmt.Fprint(w, listBody)
	})
	return mux
}

func newLiveSource(t *testing.T, cs *crumbServer, withCookie bool) *YahooOptionsSource {
	t.Helper()
	srv := httptest.NewServer(cs.handler())
	t.Cleanup(srv.Close)

	cfg := &models.MConfig{DataSource: models.MDataSourceConfig{BaseURL: srv.URL}}
	if withCookie {
		cfg.DataSource.CookieURL = srv.URL + "/cookie"
	}
	netMgr := network.NewAsyncNetworkManager(cfg, logger.NewLoggerTo(io.Discard, "net-test"))
	src := NewYahooOptionsSource(cfg, netMgr)
	src.Logger = logger.NewLoggerTo(io.Discard, "yahoo-test")
	return src
}

func TestCrumbHandshake(t *testing.T) {
	cs := &crumbServer{crumb: "abc123"}
	src := newLiveSource(t, cs, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := src.Expiries(ctx, "AAPL")
		if err != nil {
			t.Fatalf("Expiries #%d: %v", i+1, err)
		}
		if len(got) != 4 {
			t.Fatalf("got %d expiries", len(got))
		}
	}
	if n := cs.fetches(); n != 1 {
		t.Errorf("crumb fetched %d times, want 1", n)
	}
}

func TestCrumbRefreshedOnUnauthorized(t *testing.T) {
	cs := &crumbServer{crumb: "first"}
	src := newLiveSource(t, cs, true)
	ctx := context.Background()

	if _, err := src.Expiries(ctx, "AAPL"); err != nil {
		t.Fatal(err)
	}
	cs.setCrumb("second")

	if _, err := src.Expiries(ctx, "AAPL"); err != nil {
		t.Fatalf("expected refresh after 401, got %v", err)
	}
	if n := cs.fetches(); n != 2 {
		t.Errorf("crumb fetched %d times, want 2", n)
	}
}

func TestCrumbWithoutSessionCookieFails(t *testing.T) {
	cs := &crumbServer{crumb: "abc123"}
	src := newLiveSource(t, cs, false)

	_, err := src.Expiries(context.Background(), "AAPL")
	if helpers.StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 network error, got %v", err)
	}
}
