// Package indicators wraps the talib series functions with the
// latest-value, readiness-aware accessors the strategies consume.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average of the last period closes, or
// (0, false) until enough bars have accumulated.
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}

	out := talib.Sma(closes, period)

	return last(out)
}

// RSI returns the Wilder relative strength index over period, or
// (0, false) until period+1 closes exist.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	out := talib.Rsi(closes, period)

	return last(out)
}

func last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}

	v := series[len(series)-1]
	if math.IsNaN(v) {
		return 0, false
	}

	return v, true
}
