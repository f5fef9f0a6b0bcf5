package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboardBot/internal/dashboard"
	"dashboardBot/internal/finance"
	"dashboardBot/internal/storage"
)

var testLogger = zerolog.New(nil).Level(zerolog.Disabled)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) photos() []tgbotapi.PhotoConfig {
	var out []tgbotapi.PhotoConfig
	for _, c := range f.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type fakeDashboards struct {
	dash    *dashboard.Dashboard
	err     error
	lastReq dashboard.Request
}

func (f *fakeDashboards) Build(_ context.Context, req dashboard.Request) (*dashboard.Dashboard, error) {
	f.lastReq = req
	if len(req.Symbols) == 0 {
		return nil, dashboard.ErrNoSelection
	}
	return f.dash, f.err
}

func (f *fakeDashboards) Tickers(query string) ([]finance.UniverseEntry, error) {
	all := []finance.UniverseEntry{{Code: "PETR4", Display: "Petrobras PN"}, {Code: "VALE3", Display: "Vale ON"}}
	var out []finance.UniverseEntry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Display), strings.ToLower(query)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeDashboards) Benchmarks() []finance.Benchmark {
	return []finance.Benchmark{{Name: "IBOV", Symbol: "^BVSP", Display: "Ibovespa"}}
}

func (f *fakeDashboards) DefaultBenchmark() string { return "IBOV" }

type fakeCommentator struct{ summary string }

func (f *fakeCommentator) Comment(_ context.Context, summary string) (string, error) {
	f.summary = summary
	return "Portfolio beat the index.", nil
}

func sampleDashboard() *dashboard.Dashboard {
	ok := func(v float64) finance.Stat { return finance.Stat{Value: v} }
	return &dashboard.Dashboard{
		Benchmark: finance.Benchmark{Name: "IBOV", Display: "Ibovespa"},
		From:      time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		Rows:      5,
		Cards: []dashboard.Card{
			{Column: "PETR4", Display: "Petrobras PN", Kind: dashboard.KindAsset, Weight: 1, TotalReturn: 0.1,
				Volatility: ok(0.3), Sharpe: ok(0.33), Beta: ok(1.1), Icon: []byte("\x89PNG")},
			{Column: "portfolio", Kind: dashboard.KindPortfolio, TotalReturn: 0.1, Volatility: ok(0.3), Sharpe: ok(0.33), Beta: ok(1.1)},
			{Column: "IBOV", Display: "Ibovespa", Kind: dashboard.KindBenchmark, TotalReturn: 0.02, Volatility: ok(0.2), Sharpe: ok(0.1), Beta: ok(1)},
		},
		Warnings:        []string{"no icon for VALE3"},
		NormalizedChart: []byte("\x89PNG-norm"),
		RiskReturnChart: []byte("\x89PNG-rr"),
	}
}

func newTestHandlers(t *testing.T, dash *fakeDashboards, c Commentator) (*Handlers, *fakeSender, *storage.Store) {
	t.Helper()
	db, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(db))
	store := storage.NewStore(db)

	sender := &fakeSender{}
	h := NewHandlers(sender, HandlerDeps{Dashboards: dash, Store: store, Commentator: c, Log: testLogger})
	return h, sender, store
}

func message(text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: 42}, From: &tgbotapi.User{ID: 7}}
}

func TestDashCommand(t *testing.T) {
	dash := &fakeDashboards{dash: sampleDashboard()}
	h, sender, store := newTestHandlers(t, dash, nil)

	h.HandleMessage(message("/dash petr4 2024-03-04 2024-03-09 vs ibov"))

	assert.Equal(t, []string{"PETR4"}, dash.lastReq.Symbols)
	assert.Equal(t, "IBOV", dash.lastReq.Benchmark)

	photos := sender.photos()
	require.Len(t, photos, 3, "icon card plus two charts")
	assert.True(t, strings.HasPrefix(photos[0].Caption, "PETR4 · Petrobras PN"))
	assert.Contains(t, photos[1].Caption, "Normalized prices")
	assert.Contains(t, photos[2].Caption, "Risk vs return")

	texts := sender.texts()
	require.Len(t, texts, 3)
	assert.True(t, strings.HasPrefix(texts[0], "portfolio"))
	assert.True(t, strings.HasPrefix(texts[1], "IBOV · Ibovespa"))
	assert.Contains(t, texts[2], "no icon for VALE3")

	stats, err := store.UsageStats(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats["dashboard"].Commands["/dash"])
}

func TestDashIdleAndErrors(t *testing.T) {
	dash := &fakeDashboards{}
	h, sender, _ := newTestHandlers(t, dash, nil)

	h.HandleMessage(message("/dash"))
	require.Len(t, sender.texts(), 1)
	assert.Contains(t, sender.texts()[0], "Pick at least one ticker")

	dash.err = &dashboard.UnknownSymbolsError{Codes: []string{"XXXX3"}}
	h.HandleMessage(message("/dash XXXX3"))
	assert.Contains(t, sender.texts()[1], "Unknown tickers: XXXX3")

	dash.err = errors.Join(dashboard.ErrProvider, errors.New("timeout"))
	h.HandleMessage(message("/dash PETR4"))
	assert.Contains(t, sender.texts()[2], "Couldn’t fetch prices")

	h.HandleMessage(message("/dash PETR4 2024-99-99"))
	assert.Contains(t, sender.texts()[3], "Couldn’t read that")
	assert.Empty(t, sender.photos())
}

func TestExplainCommand(t *testing.T) {
	c := &fakeCommentator{}
	h, sender, _ := newTestHandlers(t, &fakeDashboards{dash: sampleDashboard()}, c)

	h.HandleMessage(message("/explain PETR4"))
	texts := sender.texts()
	assert.Equal(t, "Portfolio beat the index.", texts[len(texts)-1])
	assert.Contains(t, c.summary, "PETR4")
}

func TestExplainWithoutCommentator(t *testing.T) {
	h, sender, _ := newTestHandlers(t, &fakeDashboards{dash: sampleDashboard()}, nil)
	h.HandleMessage(message("/explain PETR4"))
	texts := sender.texts()
	assert.Contains(t, texts[len(texts)-1], "not configured")
}

func TestLookupCommands(t *testing.T) {
	h, sender, _ := newTestHandlers(t, &fakeDashboards{}, nil)

	h.HandleMessage(message("/tickers vale"))
	h.HandleMessage(message("/tickers nothing"))
	h.HandleMessage(message("/benchmarks"))
	h.HandleMessage(message("/help"))
	h.HandleMessage(message("just chatting"))

	texts := sender.texts()
	require.Len(t, texts, 4)
	assert.Equal(t, "Tickers (1):\nVALE3 - Vale ON", texts[0])
	assert.Contains(t, texts[1], "No tickers match")
	assert.Equal(t, "Benchmarks:\nIBOV - Ibovespa (^BVSP) [default]", texts[2])
	assert.Contains(t, texts[3], "/dash")
}

func TestUsageCommand(t *testing.T) {
	h, sender, _ := newTestHandlers(t, &fakeDashboards{}, nil)

	h.HandleMessage(message("/usage"))
	assert.Contains(t, sender.texts()[0], "No usage data")

	h.HandleMessage(message("/help"))
	h.HandleMessage(message("/help"))
	h.HandleMessage(message("/usage 3"))
	texts := sender.texts()
	assert.Contains(t, texts[len(texts)-1], "Total commands: 3")
	assert.Len(t, sender.photos(), 2)
}

func TestUsageWithoutStore(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandlers(sender, HandlerDeps{Dashboards: &fakeDashboards{}, Log: testLogger})

	require.NotPanics(t, func() { h.HandleMessage(message("/usage 7")) })
	texts := sender.texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "Usage log is not configured.", texts[0])
	assert.Empty(t, sender.photos())
}

func TestWebhookHandler(t *testing.T) {
	h, sender, _ := newTestHandlers(t, &fakeDashboards{}, nil)
	bot := NewWebhookBot(h, testLogger)

	rec := httptest.NewRecorder()
	bot.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	bot.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook",
		strings.NewReader(`{"update_id":1,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"/help"}}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.sent) == 1
	}, time.Second, 10*time.Millisecond)
}
