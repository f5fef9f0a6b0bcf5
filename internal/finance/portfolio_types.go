package finance

import "time"

// PriceSeries holds daily closes for a single symbol, oldest first.
type PriceSeries struct {
	Symbol string
	Dates  []time.Time
	Closes []float64
}

// WeightedAsset represents an asset with its weight in the portfolio
type WeightedAsset struct {
	Symbol string
	Weight float64
}

// Metrics is the full output of one metrics computation.
type Metrics struct {
	Benchmark string
	Weights   []WeightedAsset

	Prices     *PriceTable // input prices plus the portfolio column
	Normalized *PriceTable // every column rebased to 100 on the first date
	Returns    *PriceTable // simple daily returns, first date dropped

	Volatility  map[string]Stat    // annualized
	TotalReturn map[string]float64 // over the whole window
	Sharpe      map[string]Stat
	Beta        map[string]Stat
}

// Columns returns the column order of the computation (assets, benchmark, portfolio).
func (m *Metrics) Columns() []string {
	return m.Prices.Columns
}
