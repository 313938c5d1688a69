package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateSeries(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	err := ValidateSeries(nil)
	assert.Error(t, err)

	ok := []Bar{
		{Time: t0, Close: 100},
		{Time: t0.Add(5 * time.Minute), Close: 101},
	}
	assert.NoError(t, ValidateSeries(ok))

	dup := []Bar{
		{Time: t0, Close: 100},
		{Time: t0, Close: 101},
	}
	assert.Error(t, ValidateSeries(dup))

	backwards := []Bar{
		{Time: t0.Add(5 * time.Minute), Close: 100},
		{Time: t0, Close: 101},
	}
	assert.Error(t, ValidateSeries(backwards))
}

func TestSyntheticDeterministic(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	a := Synthetic("RELIANCE", 200, start, 42)
	b := Synthetic("RELIANCE", 200, start, 42)
	assert.Equal(t, a, b)

	c := Synthetic("RELIANCE", 200, start, 43)
	assert.NotEqual(t, a, c)
}

func TestSyntheticSeriesShape(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	bars := Synthetic("TCS", 300, start, 42)

	assert.Len(t, bars, 300)
	assert.NoError(t, ValidateSeries(bars))

	for _, b := range bars {
		assert.GreaterOrEqual(t, b.Time.Hour(), 9)
		assert.Less(t, b.Time.Hour(), 16)
		assert.GreaterOrEqual(t, b.High, b.Open)
		assert.GreaterOrEqual(t, b.High, b.Close)
		assert.LessOrEqual(t, b.Low, b.Open)
		assert.LessOrEqual(t, b.Low, b.Close)
		assert.Greater(t, b.Volume, int64(0))
	}

	// TCS walk should stay in the neighborhood of its base price.
	last := bars[len(bars)-1].Close
	assert.InDelta(t, 3200, last, 3200*0.25)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	inst, err := Lookup("RELIANCE")
	assert.NoError(t, err)
	assert.Equal(t, int64(738561), inst.KiteToken)
	assert.Equal(t, "2885", inst.DhanSecurityID)

	_, err = Lookup("NOPE")
	assert.Error(t, err)
}

func TestIntervalDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Minute, Minute.Duration())
	assert.Equal(t, 5*time.Minute, FiveMinute.Duration())
	assert.Equal(t, 5*time.Minute, Interval("bogus").Duration())
}
