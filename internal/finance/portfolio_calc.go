package finance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization convention for daily volatility.
const TradingDaysPerYear = 252

var (
	ErrNoAssets         = errors.New("no asset columns besides the benchmark")
	ErrMissingBenchmark = errors.New("benchmark column not found")
)

// EqualWeights assigns 1/N to every column except the benchmark.
func EqualWeights(prices *PriceTable, benchmark string) ([]WeightedAsset, error) {
	var symbols []string
	for _, c := range prices.Columns {
		if c != benchmark {
			symbols = append(symbols, c)
		}
	}
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}

	weight := 1.0 / float64(len(symbols))
	assets := make([]WeightedAsset, 0, len(symbols))
	for _, symbol := range symbols {
		assets = append(assets, WeightedAsset{Symbol: symbol, Weight: weight})
	}
	return assets, nil
}

// WithPortfolio returns a copy of prices with the equal-weight portfolio column appended.
func WithPortfolio(prices *PriceTable, benchmark string) (*PriceTable, []WeightedAsset, error) {
	if err := prices.validatePrices(); err != nil {
		return nil, nil, err
	}
	if prices.Index(benchmark) < 0 {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingBenchmark, benchmark)
	}
	if prices.Index(PortfolioColumn) >= 0 {
		return nil, nil, fmt.Errorf("price table already has a %q column", PortfolioColumn)
	}

	weights, err := EqualWeights(prices, benchmark)
	if err != nil {
		return nil, nil, err
	}

	values := make([]float64, prices.Rows())
	for _, asset := range weights {
		col, _ := prices.Column(asset.Symbol)
		for day, price := range col {
			values[day] += asset.Weight * price
		}
	}

	out := prices.Clone()
	if err := out.AddColumn(PortfolioColumn, values); err != nil {
		return nil, nil, err
	}
	return out, weights, nil
}

// Normalize rebases every column so that its first value is 100.
func Normalize(prices *PriceTable) (*PriceTable, error) {
	if err := prices.validatePrices(); err != nil {
		return nil, err
	}
	out := NewPriceTable(prices.Dates)
	for i, name := range prices.Columns {
		col := prices.Values[i]
		base := col[0]
		norm := make([]float64, len(col))
		for day, v := range col {
			norm[day] = v / base * 100
		}
		if err := out.AddColumn(name, norm); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Returns computes simple period returns of the raw prices. The first date
// has no prior period and is dropped, so the result has one row less.
func Returns(prices *PriceTable) (*PriceTable, error) {
	if err := prices.validatePrices(); err != nil {
		return nil, err
	}
	out := NewPriceTable(prices.Dates[1:])
	for i, name := range prices.Columns {
		col := prices.Values[i]
		rets := make([]float64, len(col)-1)
		for day := 1; day < len(col); day++ {
			rets[day-1] = (col[day] - col[day-1]) / col[day-1]
		}
		if err := out.AddColumn(name, rets); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Volatility is the sample standard deviation of each return column,
// annualized with sqrt(252).
func Volatility(returns *PriceTable) map[string]Stat {
	out := make(map[string]Stat, len(returns.Columns))
	for i, name := range returns.Columns {
		rets := returns.Values[i]
		if len(rets) < 2 {
			out[name] = insufficient()
			continue
		}
		out[name] = okStat(stat.StdDev(rets, nil) * math.Sqrt(TradingDaysPerYear))
	}
	return out
}

// TotalReturns reads the cumulative change over the window off the normalized table.
func TotalReturns(normalized *PriceTable) map[string]float64 {
	out := make(map[string]float64, len(normalized.Columns))
	for name, last := range normalized.Last() {
		out[name] = (last - 100) / 100
	}
	return out
}

// SharpeRatios divides total return by volatility. Zero-risk free rate.
func SharpeRatios(totalReturns map[string]float64, vols map[string]Stat) map[string]Stat {
	out := make(map[string]Stat, len(vols))
	for name, vol := range vols {
		if !vol.OK() {
			out[name] = Stat{Value: math.NaN(), Status: vol.Status}
			continue
		}
		out[name] = ratio(totalReturns[name], vol.Value)
	}
	return out
}

// Betas computes Cov(column, benchmark) / Var(benchmark) over the return table.
func Betas(returns *PriceTable, benchmark string) (map[string]Stat, error) {
	bench, ok := returns.Column(benchmark)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingBenchmark, benchmark)
	}
	out := make(map[string]Stat, len(returns.Columns))
	if len(bench) < 2 {
		for _, name := range returns.Columns {
			out[name] = insufficient()
		}
		return out, nil
	}

	variance := stat.Variance(bench, nil)
	for i, name := range returns.Columns {
		out[name] = ratio(stat.Covariance(returns.Values[i], bench, nil), variance)
	}
	return out, nil
}

// ComputeMetrics runs the whole pipeline on an assembled price table.
func ComputeMetrics(prices *PriceTable, benchmark string) (*Metrics, error) {
	withPortfolio, weights, err := WithPortfolio(prices, benchmark)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio: %w", err)
	}

	normalized, err := Normalize(withPortfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize prices: %w", err)
	}

	returns, err := Returns(withPortfolio)
	if err != nil {
		return nil, fmt.Errorf("failed to compute returns: %w", err)
	}

	vols := Volatility(returns)
	totals := TotalReturns(normalized)

	betas, err := Betas(returns, benchmark)
	if err != nil {
		return nil, fmt.Errorf("failed to compute betas: %w", err)
	}

	return &Metrics{
		Benchmark:   benchmark,
		Weights:     weights,
		Prices:      withPortfolio,
		Normalized:  normalized,
		Returns:     returns,
		Volatility:  vols,
		TotalReturn: totals,
		Sharpe:      SharpeRatios(totals, vols),
		Beta:        betas,
	}, nil
}
