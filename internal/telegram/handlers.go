package telegram

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"dashboardBot/internal/dashboard"
	"dashboardBot/internal/finance"
	"dashboardBot/internal/storage"
)

var (
	// /dash S1 S2 ... [START [END]] [vs BENCH]
	reDash = regexp.MustCompile(`^/dash(?:@[\w_]+)?(?:\s+(.*))?$`)
	// /explain takes the same arguments as /dash
	reExplain = regexp.MustCompile(`^/explain(?:@[\w_]+)?(?:\s+(.*))?$`)
	// /tickers [query]
	reTickers    = regexp.MustCompile(`^/tickers(?:@[\w_]+)?(?:\s+(.*))?$`)
	reBenchmarks = regexp.MustCompile(`^/benchmarks(?:@[\w_]+)?$`)
	// /usage [days]
	reUsage = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reHelp  = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

const maxTickersListed = 30

// Sender is the part of the Bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dashboards builds dashboards and answers lookups.
type Dashboards interface {
	Build(ctx context.Context, req dashboard.Request) (*dashboard.Dashboard, error)
	Tickers(query string) ([]finance.UniverseEntry, error)
	Benchmarks() []finance.Benchmark
	DefaultBenchmark() string
}

// Commentator explains a dashboard summary in prose.
type Commentator interface {
	Comment(ctx context.Context, summary string) (string, error)
}

// HandlerDeps groups what the handlers need besides the Bot API.
type HandlerDeps struct {
	Dashboards  Dashboards
	Store       *storage.Store // nil disables the request log and /usage
	Commentator Commentator    // nil disables /explain commentary
	Timeout     time.Duration
	Log         zerolog.Logger
}

type Handlers struct {
	api         Sender
	dashboards  Dashboards
	store       *storage.Store
	commentator Commentator
	usage       *finance.UsageAnalytics
	timeout     time.Duration
	log         zerolog.Logger
}

func NewHandlers(api Sender, d HandlerDeps) *Handlers {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Handlers{
		api:         api,
		dashboards:  d.Dashboards,
		store:       d.Store,
		commentator: d.Commentator,
		usage:       finance.NewUsageAnalytics(),
		timeout:     timeout,
		log:         d.Log.With().Str("component", "telegram").Logger(),
	}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	chatID := m.Chat.ID

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var category, command string
	var err error
	switch {
	case reDash.MatchString(txt):
		category, command = "dashboard", "/dash"
		err = h.handleDashboard(ctx, chatID, reDash.FindStringSubmatch(txt)[1], false)

	case reExplain.MatchString(txt):
		category, command = "commentary", "/explain"
		err = h.handleDashboard(ctx, chatID, reExplain.FindStringSubmatch(txt)[1], true)

	case reTickers.MatchString(txt):
		category, command = "universe", "/tickers"
		err = h.handleTickers(chatID, reTickers.FindStringSubmatch(txt)[1])

	case reBenchmarks.MatchString(txt):
		category, command = "universe", "/benchmarks"
		h.handleBenchmarks(chatID)

	case reUsage.MatchString(txt):
		category, command = "usage", "/usage"
		days := 7
		if g := reUsage.FindStringSubmatch(txt); g[1] != "" {
			days, _ = strconv.Atoi(g[1])
		}
		err = h.handleUsage(chatID, days)

	case reHelp.MatchString(txt):
		category, command = "help", "/help"
		h.handleHelp(chatID)

	default:
		return
	}

	h.logRequest(chatID, category, command, err)
}

func (h *Handlers) handleDashboard(ctx context.Context, chatID int64, args string, explain bool) error {
	req, err := dashboard.ParseArgs(strings.Fields(args))
	if err != nil {
		h.reply(chatID, "Couldn’t read that: "+err.Error()+"\n\nUsage: /dash PETR4 VALE3 [2023-01-02 [2023-12-29]] [vs IBOV]")
		return err
	}

	d, err := h.dashboards.Build(ctx, req)
	if errors.Is(err, dashboard.ErrNoSelection) {
		h.reply(chatID, "Pick at least one ticker, e.g. /dash PETR4 VALE3. Use /tickers to search.")
		return nil
	}
	if err != nil {
		h.reply(chatID, userMessage(err))
		return err
	}

	for _, card := range d.Cards {
		h.sendCard(chatID, card)
	}
	if d.NormalizedChart != nil {
		h.sendPhoto(chatID, "normalized.png", d.NormalizedChart, "Normalized prices (base 100) vs "+d.Benchmark.Name)
	}
	if d.RiskReturnChart != nil {
		h.sendPhoto(chatID, "risk_return.png", d.RiskReturnChart, "Risk vs return (annualized volatility, total return)")
	}
	if len(d.Warnings) > 0 {
		h.reply(chatID, "Notes:\n- "+strings.Join(d.Warnings, "\n- "))
	}

	if !explain {
		return nil
	}
	if h.commentator == nil {
		h.reply(chatID, "AI commentary is not configured on this bot.")
		return nil
	}
	text, err := h.commentator.Comment(ctx, d.Summary())
	if err != nil {
		h.reply(chatID, "Commentary failed: "+err.Error())
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	h.send(msg)
	return nil
}

// userMessage turns a dashboard error into a reply.
func userMessage(err error) string {
	var unknown *dashboard.UnknownSymbolsError
	switch {
	case errors.As(err, &unknown):
		return fmt.Sprintf("Unknown tickers: %s. Use /tickers to search.", strings.Join(unknown.Codes, ", "))
	case errors.Is(err, dashboard.ErrUnknownBenchmark):
		return err.Error() + ". Use /benchmarks to list them."
	case errors.Is(err, dashboard.ErrInvalidRange), errors.Is(err, dashboard.ErrNoTradingDays):
		return err.Error()
	case errors.Is(err, dashboard.ErrUniverse):
		return "Couldn’t load the ticker list, try again later."
	case errors.Is(err, dashboard.ErrProvider):
		return "Couldn’t fetch prices: " + err.Error()
	default:
		return "Dashboard failed: " + err.Error()
	}
}

func (h *Handlers) sendCard(chatID int64, card dashboard.Card) {
	if len(card.Icon) > 0 {
		h.sendPhoto(chatID, card.Column+".png", card.Icon, card.Caption())
		return
	}
	h.reply(chatID, card.Caption())
}

func (h *Handlers) handleTickers(chatID int64, query string) error {
	entries, err := h.dashboards.Tickers(query)
	if err != nil {
		h.reply(chatID, userMessage(err))
		return err
	}
	if len(entries) == 0 {
		h.reply(chatID, fmt.Sprintf("No tickers match %q.", strings.TrimSpace(query)))
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tickers (%d):\n", len(entries))
	for i, e := range entries {
		if i >= maxTickersListed {
			fmt.Fprintf(&b, "… and %d more, narrow the search", len(entries)-maxTickersListed)
			break
		}
		fmt.Fprintf(&b, "%s - %s\n", e.Code, e.Display)
	}
	h.reply(chatID, strings.TrimRight(b.String(), "\n"))
	return nil
}

func (h *Handlers) handleBenchmarks(chatID int64) {
	var b strings.Builder
	b.WriteString("Benchmarks:\n")
	for _, bm := range h.dashboards.Benchmarks() {
		fmt.Fprintf(&b, "%s - %s (%s)", bm.Name, bm.Display, bm.Symbol)
		if bm.Name == h.dashboards.DefaultBenchmark() {
			b.WriteString(" [default]")
		}
		b.WriteString("\n")
	}
	h.reply(chatID, strings.TrimRight(b.String(), "\n"))
}

func (h *Handlers) handleUsage(chatID int64, days int) error {
	if h.store == nil {
		h.reply(chatID, "Usage log is not configured.")
		return nil
	}
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}
	since := time.Now().AddDate(0, 0, -days)
	stats, err := h.store.UsageStats(since)
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return err
	}
	h.reply(chatID, h.usage.FormatUsageStatsText(stats, days))
	if len(stats) == 0 {
		return nil
	}

	if img, err := h.usage.MakeUsageChart(stats, days); err == nil {
		h.sendPhoto(chatID, "usage.png", img, "")
	} else {
		h.log.Warn().Err(err).Msg("usage chart failed")
	}

	bucket := 24 * time.Hour
	if days <= 1 {
		bucket = time.Hour
	}
	series, err := h.store.UsageSeries(since, bucket)
	if err != nil {
		return err
	}
	if img, err := h.usage.MakeUsageTimeSeriesChart(series, days); err == nil {
		h.sendPhoto(chatID, "usage_series.png", img, "")
	} else {
		h.log.Warn().Err(err).Msg("usage series chart failed")
	}
	return nil
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /dash S1 S2 ... [START [END]] [vs BENCH] - Performance cards and charts for the tickers, their equal-weight portfolio and a benchmark\n" +
		"- /explain S1 S2 ... [START [END]] [vs BENCH] - Same as /dash plus an AI commentary\n" +
		"- /tickers [query] - Search the ticker list\n" +
		"- /benchmarks - List the benchmarks\n" +
		"- /usage [days] - Bot usage (default 7, max 90)\n" +
		"\nDates are YYYY-MM-DD. Defaults: start " + dashboard.DefaultStart.Format(finance.DateLayout) +
		", end today (exclusive), benchmark " + h.dashboards.DefaultBenchmark() + "."
	h.reply(chatID, help)
}

func (h *Handlers) logRequest(chatID int64, category, command string, err error) {
	if h.store == nil {
		return
	}
	r := storage.Request{ChatID: chatID, Category: category, Command: command, Status: storage.StatusOK}
	if err != nil {
		r.Status = storage.StatusError
		r.Error = err.Error()
	}
	if _, lerr := h.store.LogRequest(r); lerr != nil {
		h.log.Warn().Err(lerr).Msg("failed to log request")
	}
}

func (h *Handlers) sendPhoto(chatID int64, name string, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	h.send(photo)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.log.Error().Err(err).Msg("telegram send failed")
	}
}
