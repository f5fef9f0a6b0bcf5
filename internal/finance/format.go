package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// FormatPercent renders a fraction as a whole percentage, e.g. 0.1234 -> "12%".
func FormatPercent(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	return decimal.NewFromFloat(v).Shift(2).Round(0).String() + "%"
}

// FormatRatio renders a plain number with two decimals.
func FormatRatio(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatStat renders a possibly degenerate statistic. Zero-denominator ratios
// show as ±∞ when the numerator had a sign, anything else unusable as "n/a".
func FormatStat(s Stat, percent bool) string {
	if !s.OK() {
		if s.Status == StatZeroDenominator && math.IsInf(s.Value, 0) {
			return infinity(s.Value)
		}
		return "n/a"
	}
	if percent {
		return FormatPercent(s.Value)
	}
	return FormatRatio(s.Value)
}

func formatNonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "n/a", true
	case math.IsInf(v, 0):
		return infinity(v), true
	}
	return "", false
}

func infinity(v float64) string {
	if v < 0 {
		return "-∞"
	}
	return "∞"
}
