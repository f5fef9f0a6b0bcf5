package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrNoSymbols = errors.New("no symbols selected")
	ErrNoOverlap = errors.New("selected series share no trading dates")
)

// PriceSource provides daily closes for a provider symbol over [start, end).
type PriceSource interface {
	FetchCloses(ctx context.Context, symbol string, start, end time.Time) (*PriceSeries, error)
}

// Assembler builds the aligned price table for a selection of symbols and a benchmark.
type Assembler struct {
	source PriceSource
	suffix string
	pause  time.Duration
	log    zerolog.Logger
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithPause sets the delay between consecutive provider requests.
func WithPause(d time.Duration) AssemblerOption {
	return func(a *Assembler) { a.pause = d }
}

// NewAssembler returns an assembler that decorates symbols with the market
// suffix (for example ".SA") when querying the source.
func NewAssembler(source PriceSource, suffix string, log zerolog.Logger, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		source: source,
		suffix: suffix,
		pause:  120 * time.Millisecond,
		log:    log.With().Str("component", "assembler").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProviderSymbol returns the symbol used for retrieval.
func (a *Assembler) ProviderSymbol(code string) string {
	return code + a.suffix
}

// ColumnName strips the retrieval suffix from a provider symbol.
func (a *Assembler) ColumnName(symbol string) string {
	if a.suffix == "" {
		return symbol
	}
	return strings.TrimSuffix(symbol, a.suffix)
}

// Assemble fetches every symbol and the benchmark over [start, end) and
// aligns them on the dates they all share. Columns follow request order,
// with the benchmark last.
func (a *Assembler) Assemble(ctx context.Context, symbols []string, benchmark Benchmark, start, end time.Time) (*PriceTable, error) {
	codes := dedupeSymbols(symbols)
	if len(codes) == 0 {
		return nil, ErrNoSymbols
	}

	series := make([]*PriceSeries, 0, len(codes)+1)
	names := make([]string, 0, len(codes)+1)
	for i, code := range codes {
		if i > 0 && a.pause > 0 {
			select {
			case <-time.After(a.pause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		symbol := a.ProviderSymbol(code)
		s, err := a.source.FetchCloses(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", code, err)
		}
		series = append(series, s)
		names = append(names, a.ColumnName(symbol))
	}

	bench, err := a.source.FetchCloses(ctx, benchmark.Symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch benchmark %s: %w", benchmark.Name, err)
	}
	series = append(series, bench)
	names = append(names, benchmark.Name)

	table, err := alignSeries(names, series)
	if err != nil {
		return nil, err
	}
	a.log.Debug().
		Strs("columns", table.Columns).
		Int("rows", table.Rows()).
		Msg("price table assembled")
	return table, nil
}

// alignSeries keeps only the dates present in every series. Missing dates
// are dropped, never filled.
func alignSeries(names []string, series []*PriceSeries) (*PriceTable, error) {
	if len(series) == 0 {
		return nil, ErrNoSymbols
	}

	lookups := make([]map[time.Time]float64, len(series))
	count := map[time.Time]int{}
	for i, s := range series {
		m := make(map[time.Time]float64, len(s.Dates))
		for j, d := range s.Dates {
			if j < len(s.Closes) {
				m[d] = s.Closes[j]
			}
		}
		lookups[i] = m
		for d := range m {
			count[d]++
		}
	}

	common := make([]time.Time, 0, len(count))
	for d, c := range count {
		if c == len(series) {
			common = append(common, d)
		}
	}
	if len(common) == 0 {
		return nil, ErrNoOverlap
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	table := NewPriceTable(common)
	for i, name := range names {
		values := make([]float64, len(common))
		for j, d := range common {
			values[j] = lookups[i][d]
		}
		if err := table.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// dedupeSymbols upper-cases, trims and de-duplicates codes, keeping first occurrence order.
func dedupeSymbols(symbols []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		su := strings.ToUpper(strings.TrimSpace(s))
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
