package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dashboardBot/internal/finance"
)

var (
	// ErrNoSelection is the idle state: nothing is computed until a ticker is chosen.
	ErrNoSelection      = errors.New("select at least one ticker to build a dashboard")
	ErrUniverse         = errors.New("failed to load the ticker list")
	ErrUnknownBenchmark = errors.New("unknown benchmark")
	ErrInvalidRange     = errors.New("invalid date range")
	ErrNoTradingDays    = errors.New("no trading days in the selected range")
	ErrProvider         = errors.New("market data provider failed")
	ErrCompute          = errors.New("failed to compute metrics")
)

// UnknownSymbolsError lists requested codes that are not in the ticker list.
type UnknownSymbolsError struct {
	Codes []string
}

func (e *UnknownSymbolsError) Error() string {
	return "unknown tickers: " + strings.Join(e.Codes, ", ")
}

// IconSource returns the logo of a ticker code.
type IconSource interface {
	Icon(ctx context.Context, code string) ([]byte, error)
}

// UniverseLoader reads the ticker list. It is called once per interaction.
type UniverseLoader func() (*finance.Universe, error)

// FileUniverse loads the ticker list from a CSV file.
func FileUniverse(path string) UniverseLoader {
	return func() (*finance.Universe, error) { return finance.LoadUniverse(path) }
}

// Service builds dashboards. It holds no per-request state.
type Service struct {
	universe   UniverseLoader
	benchmarks *finance.BenchmarkCatalog
	assembler  *finance.Assembler
	calendar   *finance.TradingCalendar
	icons      IconSource
	now        func() time.Time
	log        zerolog.Logger
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Universe   UniverseLoader
	Benchmarks *finance.BenchmarkCatalog
	Assembler  *finance.Assembler
	Calendar   *finance.TradingCalendar
	Icons      IconSource // optional
	Now        func() time.Time
	Log        zerolog.Logger
}

func NewService(d Deps) *Service {
	s := &Service{
		universe:   d.Universe,
		benchmarks: d.Benchmarks,
		assembler:  d.Assembler,
		calendar:   d.Calendar,
		icons:      d.Icons,
		now:        d.Now,
		log:        d.Log.With().Str("component", "dashboard").Logger(),
	}
	if s.benchmarks == nil {
		s.benchmarks = finance.DefaultBenchmarks()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Build validates the request, fetches prices, computes metrics and renders both charts.
func (s *Service) Build(ctx context.Context, req Request) (*Dashboard, error) {
	if len(dedupe(req.Symbols)) == 0 {
		return nil, ErrNoSelection
	}

	universe, err := s.universe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUniverse, err)
	}
	req.Symbols = dedupe(req.Symbols)
	if unknown := universe.Unknown(req.Symbols); len(unknown) > 0 {
		return nil, &UnknownSymbolsError{Codes: unknown}
	}

	bench, err := s.benchmarks.Resolve(req.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownBenchmark, req.Benchmark)
	}
	req.Benchmark = bench.Name
	for _, sym := range req.Symbols {
		if sym == bench.Name || sym == strings.ToUpper(finance.PortfolioColumn) {
			return nil, fmt.Errorf("ticker %s clashes with a reserved column name", sym)
		}
	}

	if err := s.resolveDates(&req); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	log := s.log.With().Str("dashboard_id", id).Logger()
	log.Info().
		Strs("symbols", req.Symbols).
		Str("start", req.Start.Format(finance.DateLayout)).
		Str("end", req.End.Format(finance.DateLayout)).
		Str("benchmark", bench.Name).
		Msg("building dashboard")

	prices, err := s.assembler.Assemble(ctx, req.Symbols, bench, req.Start, req.End)
	if err != nil {
		log.Error().Err(err).Msg("price assembly failed")
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	metrics, err := finance.ComputeMetrics(prices, bench.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompute, err)
	}

	d := &Dashboard{
		ID:        id,
		Request:   req,
		Benchmark: bench,
		From:      prices.Dates[0],
		To:        prices.Dates[prices.Rows()-1],
		Rows:      prices.Rows(),
		Metrics:   metrics,
	}
	d.Cards = s.cards(ctx, d, universe, log)

	title := fmt.Sprintf("Normalized prices %s to %s", d.From.Format(finance.DateLayout), d.To.Format(finance.DateLayout))
	d.NormalizedChart, err = finance.RenderNormalizedChart(metrics.Normalized, title)
	if err = d.chartWarning(err, "price history"); err != nil {
		return nil, err
	}
	d.RiskReturnChart, err = finance.RenderRiskReturnChart(metrics, "Risk vs return")
	if err = d.chartWarning(err, "risk-return"); err != nil {
		return nil, err
	}

	log.Info().Int("rows", d.Rows).Int("warnings", len(d.Warnings)).Msg("dashboard built")
	return d, nil
}

// chartWarning turns a too-short window into a warning; other render errors are returned.
func (d *Dashboard) chartWarning(err error, chart string) error {
	if errors.Is(err, finance.ErrNothingToPlot) {
		d.Warnings = append(d.Warnings, "not enough trading days for a "+chart+" chart")
		return nil
	}
	return err
}

// resolveDates applies the default window and clamps the end to today.
func (s *Service) resolveDates(req *Request) error {
	today := s.calendar.Today(s.now())
	if req.Start.IsZero() {
		req.Start = DefaultStart
	}
	if req.End.IsZero() || req.End.After(today) {
		req.End = today
	}
	if !req.Start.Before(req.End) {
		return fmt.Errorf("%w: start %s must be before end %s", ErrInvalidRange,
			req.Start.Format(finance.DateLayout), req.End.Format(finance.DateLayout))
	}
	if !s.calendar.HasTradingDay(req.Start, req.End) {
		return fmt.Errorf("%w: %s to %s", ErrNoTradingDays,
			req.Start.Format(finance.DateLayout), req.End.Format(finance.DateLayout))
	}
	return nil
}

// cards lists the assets in request order, then the portfolio, then the benchmark.
func (s *Service) cards(ctx context.Context, d *Dashboard, universe *finance.Universe, log zerolog.Logger) []Card {
	m := d.Metrics
	weights := make(map[string]float64, len(m.Weights))
	for _, w := range m.Weights {
		weights[w.Symbol] = w.Weight
	}

	card := func(column, display string, kind CardKind) Card {
		return Card{
			Column:      column,
			Display:     display,
			Kind:        kind,
			Weight:      weights[column],
			TotalReturn: m.TotalReturn[column],
			Volatility:  m.Volatility[column],
			Sharpe:      m.Sharpe[column],
			Beta:        m.Beta[column],
		}
	}

	out := make([]Card, 0, len(d.Request.Symbols)+2)
	for _, sym := range d.Request.Symbols {
		c := card(sym, universe.Display(sym), KindAsset)
		if s.icons != nil {
			icon, err := s.icons.Icon(ctx, sym)
			if err != nil {
				log.Warn().Err(err).Str("symbol", sym).Msg("icon unavailable")
				d.Warnings = append(d.Warnings, "no icon for "+sym)
			} else {
				c.Icon = icon
			}
		}
		out = append(out, c)
	}
	out = append(out, card(finance.PortfolioColumn, "Equal-weight portfolio", KindPortfolio))
	out = append(out, card(d.Benchmark.Name, d.Benchmark.Display, KindBenchmark))
	return out
}

// Tickers searches the ticker list.
func (s *Service) Tickers(query string) ([]finance.UniverseEntry, error) {
	universe, err := s.universe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUniverse, err)
	}
	return universe.Search(query), nil
}

// Benchmarks lists the benchmark catalogue.
func (s *Service) Benchmarks() []finance.Benchmark {
	return s.benchmarks.All()
}

// DefaultBenchmark is the benchmark name used when a request names none.
func (s *Service) DefaultBenchmark() string {
	return s.benchmarks.Default()
}

func dedupe(symbols []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		su := strings.ToUpper(strings.TrimSpace(sym))
		if su == "" {
			continue
		}
		if _, ok := seen[su]; ok {
			continue
		}
		seen[su] = struct{}{}
		out = append(out, su)
	}
	return out
}
