package finance

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceTableAddColumn(t *testing.T) {
	table := NewPriceTable(days("2024-01-02", "2024-01-03"))

	src := []float64{1, 2}
	require.NoError(t, table.AddColumn("A", src))
	src[0] = 99
	col, ok := table.Column("A")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, col, "column must be copied")

	assert.Error(t, table.AddColumn("A", []float64{1, 2}), "duplicate")
	assert.Error(t, table.AddColumn("B", []float64{1}), "short column")
	assert.Error(t, table.AddColumn("", []float64{1, 2}), "empty name")

	assert.Equal(t, 0, table.Index("A"))
	assert.Equal(t, -1, table.Index("missing"))
	_, ok = table.Column("missing")
	assert.False(t, ok)
}

func TestPriceTableCloneIsDeep(t *testing.T) {
	table := buildTable(t, days("2024-01-02"), []string{"A"}, []float64{1})
	clone := table.Clone()
	clone.Values[0][0] = 5
	clone.Columns[0] = "Z"
	assert.Equal(t, 1.0, table.Values[0][0])
	assert.Equal(t, "A", table.Columns[0])
}

func TestPriceTableLast(t *testing.T) {
	table := buildTable(t, days("2024-01-02", "2024-01-03"), []string{"A", "B"}, []float64{1, 2}, []float64{3, 4})
	assert.Equal(t, map[string]float64{"A": 2, "B": 4}, table.Last())
	assert.Empty(t, NewPriceTable(nil).Last())
}

func TestStatJSON(t *testing.T) {
	cases := []struct {
		stat Stat
		want string
	}{
		{okStat(1.5), `{"value":1.5,"status":"ok"}`},
		{ratio(1, 0), `{"value":null,"status":"zero_denominator"}`},
		{insufficient(), `{"value":null,"status":"insufficient_data"}`},
	}
	for _, tc := range cases {
		out, err := json.Marshal(tc.stat)
		require.NoError(t, err)
		assert.JSONEq(t, tc.want, string(out))
	}
}

func TestRatio(t *testing.T) {
	s := ratio(-2, 0)
	assert.Equal(t, StatZeroDenominator, s.Status)
	assert.True(t, math.IsInf(s.Value, -1))

	s = ratio(3, 2)
	v, ok := s.Float()
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, "zero_denominator", StatZeroDenominator.String())
}
