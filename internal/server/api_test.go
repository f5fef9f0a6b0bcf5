package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboardBot/internal/dashboard"
	"dashboardBot/internal/finance"
	"dashboardBot/internal/storage"
)

var testLogger = zerolog.New(nil).Level(zerolog.Disabled)

type fakeDashboards struct {
	err     error
	lastReq dashboard.Request
	noRisk  bool
}

func (f *fakeDashboards) Build(_ context.Context, req dashboard.Request) (*dashboard.Dashboard, error) {
	f.lastReq = req
	if len(req.Symbols) == 0 {
		return nil, dashboard.ErrNoSelection
	}
	if f.err != nil {
		return nil, f.err
	}

	dates := []time.Time{
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
	}
	prices := finance.NewPriceTable(dates)
	if err := prices.AddColumn("PETR4", []float64{30, 33, 31}); err != nil {
		return nil, err
	}
	if err := prices.AddColumn("IBOV", []float64{100, 102, 101}); err != nil {
		return nil, err
	}
	m, err := finance.ComputeMetrics(prices, "IBOV")
	if err != nil {
		return nil, err
	}
	d := &dashboard.Dashboard{
		ID:              "test",
		Request:         req,
		Benchmark:       finance.Benchmark{Name: "IBOV", Symbol: "^BVSP", Display: "Ibovespa"},
		From:            dates[0],
		To:              dates[2],
		Rows:            3,
		Metrics:         m,
		Cards:           []dashboard.Card{{Column: "PETR4", Kind: dashboard.KindAsset, Weight: 1, Sharpe: m.Sharpe["PETR4"], Beta: m.Beta["PETR4"], Volatility: m.Volatility["PETR4"], TotalReturn: m.TotalReturn["PETR4"]}},
		NormalizedChart: []byte("\x89PNG-norm"),
		RiskReturnChart: []byte("\x89PNG-rr"),
	}
	if f.noRisk {
		d.RiskReturnChart = nil
	}
	return d, nil
}

func (f *fakeDashboards) Tickers(query string) ([]finance.UniverseEntry, error) {
	if query == "none" {
		return nil, nil
	}
	return []finance.UniverseEntry{{Code: "PETR4", Display: "Petrobras PN"}}, nil
}

func (f *fakeDashboards) Benchmarks() []finance.Benchmark {
	return []finance.Benchmark{{Name: "IBOV", Symbol: "^BVSP", Display: "Ibovespa"}}
}

func (f *fakeDashboards) DefaultBenchmark() string { return "IBOV" }

func newTestServer(t *testing.T, dash *fakeDashboards) (*httptest.Server, *storage.Store) {
	t.Helper()
	db, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(db))
	store := storage.NewStore(db)

	s := New(Config{Port: "0", Log: testLogger, Dashboards: dash, Store: store,
		Webhook: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) }})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func TestHealthAndWebhook(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDashboards{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/telegram/webhook", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestDashboardJSON(t *testing.T) {
	dash := &fakeDashboards{}
	srv, store := newTestServer(t, dash)

	resp, err := http.Get(srv.URL + "/api/dashboard?symbols=petr4&start=2024-03-04&benchmark=ibov")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Equal(t, []string{"PETR4"}, dash.lastReq.Symbols)
	assert.Equal(t, "IBOV", dash.lastReq.Benchmark)

	var body struct {
		ID    string `json:"id"`
		Cards []struct {
			Column string `json:"column"`
			Sharpe struct {
				Value  *float64 `json:"value"`
				Status string   `json:"status"`
			} `json:"sharpe"`
		} `json:"cards"`
		Weights    []weightView     `json:"weights"`
		Normalized dashboard.Series `json:"normalized"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "test", body.ID)
	require.Len(t, body.Cards, 1)
	assert.Equal(t, "ok", body.Cards[0].Sharpe.Status)
	assert.NotNil(t, body.Cards[0].Sharpe.Value)
	assert.Equal(t, []weightView{{Symbol: "PETR4", Weight: 1}}, body.Weights)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05", "2024-03-06"}, body.Normalized.Dates)
	assert.Equal(t, 100.0, body.Normalized.Columns["portfolio"][0])

	stats, err := store.UsageStats(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats["dashboard"].Commands["GET /api/dashboard"])
}

func TestDashboardErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"idle", "", nil, http.StatusBadRequest},
		{"bad date", "symbols=PETR4&start=2024-13-01", nil, http.StatusBadRequest},
		{"unknown ticker", "symbols=XXXX3", &dashboard.UnknownSymbolsError{Codes: []string{"XXXX3"}}, http.StatusBadRequest},
		{"no trading days", "symbols=PETR4", dashboard.ErrNoTradingDays, http.StatusBadRequest},
		{"provider", "symbols=PETR4", errors.Join(dashboard.ErrProvider, errors.New("reset")), http.StatusBadGateway},
		{"universe", "symbols=PETR4", dashboard.ErrUniverse, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeDashboards{err: tc.err})
			resp, err := http.Get(srv.URL + "/api/dashboard?" + tc.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestChartEndpoints(t *testing.T) {
	dash := &fakeDashboards{}
	srv, _ := newTestServer(t, dash)

	resp, err := http.Get(srv.URL + "/api/dashboard/normalized.png?symbols=PETR4")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	dash.noRisk = true
	resp, err = http.Get(srv.URL + "/api/dashboard/risk-return.png?symbols=PETR4")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLookupEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDashboards{})

	resp, err := http.Get(srv.URL + "/api/tickers?q=petro")
	require.NoError(t, err)
	var entries []finance.UniverseEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	resp.Body.Close()
	assert.Equal(t, []finance.UniverseEntry{{Code: "PETR4", Display: "Petrobras PN"}}, entries)

	resp, err = http.Get(srv.URL + "/api/tickers?q=none")
	require.NoError(t, err)
	var empty []finance.UniverseEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	resp.Body.Close()
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	resp, err = http.Get(srv.URL + "/api/benchmarks")
	require.NoError(t, err)
	var bm benchmarksResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bm))
	resp.Body.Close()
	assert.Equal(t, "IBOV", bm.Default)
	require.Len(t, bm.Benchmarks, 1)
	assert.Equal(t, "^BVSP", bm.Benchmarks[0].Symbol)
}
