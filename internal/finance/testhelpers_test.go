package finance

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.New(nil).Level(zerolog.Disabled)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func days(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = day(s)
	}
	return out
}

// buildTable builds a price table with columns added in the given order.
func buildTable(t *testing.T, dates []time.Time, names []string, cols ...[]float64) *PriceTable {
	t.Helper()
	table := NewPriceTable(dates)
	for i, name := range names {
		require.NoError(t, table.AddColumn(name, cols[i]))
	}
	return table
}
