package finance

import (
	"encoding/json"
	"math"
)

// StatStatus tells whether a derived scalar could be computed.
type StatStatus int

const (
	StatOK StatStatus = iota
	// StatZeroDenominator marks a ratio whose denominator was zero
	// (constant price series, zero benchmark variance).
	StatZeroDenominator
	// StatInsufficientData marks a statistic needing at least two return observations.
	StatInsufficientData
)

func (s StatStatus) String() string {
	switch s {
	case StatOK:
		return "ok"
	case StatZeroDenominator:
		return "zero_denominator"
	case StatInsufficientData:
		return "insufficient_data"
	default:
		return "unknown"
	}
}

// Stat is a scalar metric that may be degenerate. Value keeps the raw
// floating-point result (possibly ±Inf or NaN) so it can be displayed,
// but it is only meaningful when OK reports true.
type Stat struct {
	Value  float64
	Status StatStatus
}

// OK reports whether the value is a regular finite number.
func (s Stat) OK() bool { return s.Status == StatOK }

// Float returns the value and whether it is usable.
func (s Stat) Float() (float64, bool) { return s.Value, s.OK() }

// MarshalJSON encodes degenerate values as null.
func (s Stat) MarshalJSON() ([]byte, error) {
	out := struct {
		Value  *float64 `json:"value"`
		Status string   `json:"status"`
	}{Status: s.Status.String()}
	if s.OK() {
		v := s.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func okStat(v float64) Stat { return Stat{Value: v} }

func insufficient() Stat { return Stat{Value: math.NaN(), Status: StatInsufficientData} }

// ratio divides num by den, flagging a zero denominator instead of hiding it.
func ratio(num, den float64) Stat {
	if den == 0 {
		return Stat{Value: num / den, Status: StatZeroDenominator}
	}
	return okStat(num / den)
}
