package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12%", FormatPercent(0.1234))
	assert.Equal(t, "-10%", FormatPercent(-0.1))
	assert.Equal(t, "0%", FormatPercent(0))
	assert.Equal(t, "316%", FormatPercent(3.1634))
	assert.Equal(t, "n/a", FormatPercent(math.NaN()))
	assert.Equal(t, "∞", FormatPercent(math.Inf(1)))
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "1.00", FormatRatio(1))
	assert.Equal(t, "-0.03", FormatRatio(-0.0316))
	assert.Equal(t, "-∞", FormatRatio(math.Inf(-1)))
}

func TestFormatStat(t *testing.T) {
	assert.Equal(t, "0.50", FormatStat(okStat(0.5), false))
	assert.Equal(t, "50%", FormatStat(okStat(0.5), true))
	assert.Equal(t, "∞", FormatStat(ratio(1, 0), false))
	assert.Equal(t, "-∞", FormatStat(ratio(-1, 0), false))
	assert.Equal(t, "n/a", FormatStat(ratio(0, 0), false))
	assert.Equal(t, "n/a", FormatStat(insufficient(), true))
}
