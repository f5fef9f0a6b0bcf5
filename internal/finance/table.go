package finance

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// PortfolioColumn is the name of the derived equal-weight portfolio column.
const PortfolioColumn = "portfolio"

var (
	ErrEmptyTable   = errors.New("price table has no rows")
	ErrInvalidPrice = errors.New("price table contains a non-positive or non-finite price")
)

// PriceTable is a date-indexed table of closing prices with one column per series.
// Values[c][r] is the value of Columns[c] on Dates[r].
type PriceTable struct {
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

// NewPriceTable returns an empty table over the given date index.
func NewPriceTable(dates []time.Time) *PriceTable {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &PriceTable{Dates: d}
}

// Rows returns the number of dates in the table.
func (t *PriceTable) Rows() int { return len(t.Dates) }

// Index returns the position of the named column or -1.
func (t *PriceTable) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column.
func (t *PriceTable) Column(name string) ([]float64, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return t.Values[i], true
}

// AddColumn appends a column. The values must cover the whole date index.
func (t *PriceTable) AddColumn(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("column name is empty")
	}
	if t.Index(name) >= 0 {
		return fmt.Errorf("duplicate column %q", name)
	}
	if len(values) != len(t.Dates) {
		return fmt.Errorf("column %q has %d values, expected %d", name, len(values), len(t.Dates))
	}
	v := make([]float64, len(values))
	copy(v, values)
	t.Columns = append(t.Columns, name)
	t.Values = append(t.Values, v)
	return nil
}

// Clone returns a deep copy of the table.
func (t *PriceTable) Clone() *PriceTable {
	out := NewPriceTable(t.Dates)
	out.Columns = append([]string(nil), t.Columns...)
	out.Values = make([][]float64, len(t.Values))
	for i, col := range t.Values {
		out.Values[i] = append([]float64(nil), col...)
	}
	return out
}

// Last returns the final row value of every column.
func (t *PriceTable) Last() map[string]float64 {
	out := make(map[string]float64, len(t.Columns))
	n := t.Rows()
	if n == 0 {
		return out
	}
	for i, c := range t.Columns {
		out[c] = t.Values[i][n-1]
	}
	return out
}

// validatePrices checks the table is rectangular, non-empty and holds positive finite prices.
func (t *PriceTable) validatePrices() error {
	if t == nil || t.Rows() == 0 {
		return ErrEmptyTable
	}
	if len(t.Columns) != len(t.Values) {
		return fmt.Errorf("price table has %d column names for %d columns", len(t.Columns), len(t.Values))
	}
	for i, col := range t.Values {
		if len(col) != t.Rows() {
			return fmt.Errorf("column %q has %d values, expected %d", t.Columns[i], len(col), t.Rows())
		}
		for r, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: column %q on %s: %f", ErrInvalidPrice, t.Columns[i], t.Dates[r].Format(DateLayout), v)
			}
		}
	}
	return nil
}
