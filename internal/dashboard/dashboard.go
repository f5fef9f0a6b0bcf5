package dashboard

import (
	"fmt"
	"strings"
	"time"

	"dashboardBot/internal/finance"
)

type CardKind string

const (
	KindAsset     CardKind = "asset"
	KindPortfolio CardKind = "portfolio"
	KindBenchmark CardKind = "benchmark"
)

// Card holds the headline numbers of one column.
type Card struct {
	Column      string       `json:"column"`
	Display     string       `json:"display"`
	Kind        CardKind     `json:"kind"`
	Weight      float64      `json:"weight,omitempty"`
	TotalReturn float64      `json:"total_return"`
	Volatility  finance.Stat `json:"volatility"`
	Sharpe      finance.Stat `json:"sharpe"`
	Beta        finance.Stat `json:"beta"`
	Icon        []byte       `json:"-"`
}

// Caption renders the card as message text.
func (c Card) Caption() string {
	var b strings.Builder
	b.WriteString(c.Column)
	if c.Display != "" && c.Display != c.Column {
		b.WriteString(" · " + c.Display)
	}
	if c.Kind == KindAsset && c.Weight > 0 {
		fmt.Fprintf(&b, " (weight %s)", finance.FormatPercent(c.Weight))
	}
	fmt.Fprintf(&b, "\nReturn: %s", finance.FormatPercent(c.TotalReturn))
	fmt.Fprintf(&b, "\nVolatility: %s", finance.FormatStat(c.Volatility, true))
	fmt.Fprintf(&b, "\nSharpe Ratio: %s", finance.FormatStat(c.Sharpe, false))
	fmt.Fprintf(&b, "\nBeta: %s", finance.FormatStat(c.Beta, false))
	return b.String()
}

// Dashboard is the result of one interaction.
type Dashboard struct {
	ID        string            `json:"id"`
	Request   Request           `json:"request"`
	Benchmark finance.Benchmark `json:"benchmark"`
	From      time.Time         `json:"from"`
	To        time.Time         `json:"to"`
	Rows      int               `json:"rows"`
	Cards     []Card            `json:"cards"`
	Warnings  []string          `json:"warnings,omitempty"`

	Metrics         *finance.Metrics `json:"-"`
	NormalizedChart []byte           `json:"-"`
	RiskReturnChart []byte           `json:"-"`
}

// Series is the normalized price history in column-major form.
type Series struct {
	Dates   []string             `json:"dates"`
	Columns map[string][]float64 `json:"columns"`
}

// NormalizedSeries returns the base-100 history of every column.
func (d *Dashboard) NormalizedSeries() Series {
	norm := d.Metrics.Normalized
	s := Series{Dates: make([]string, norm.Rows()), Columns: make(map[string][]float64, len(norm.Columns))}
	for i, dt := range norm.Dates {
		s.Dates[i] = dt.Format(finance.DateLayout)
	}
	for i, name := range norm.Columns {
		s.Columns[name] = norm.Values[i]
	}
	return s
}

// Summary is a plain-text digest of the cards, used as input for commentary.
func (d *Dashboard) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Window: %s to %s (%d trading days), benchmark %s (%s), equal-weight portfolio.\n",
		d.From.Format(finance.DateLayout), d.To.Format(finance.DateLayout), d.Rows, d.Benchmark.Name, d.Benchmark.Display)
	for _, c := range d.Cards {
		fmt.Fprintf(&b, "- [%s] %s\n", c.Kind, strings.ReplaceAll(c.Caption(), "\n", "; "))
	}
	return b.String()
}
