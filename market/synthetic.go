package market

import (
	"math"
	"math/rand"
	"time"
)

// Base prices used when synthesizing data for a known symbol. Unknown
// symbols fall back to DefaultBasePrice.
var basePrices = map[string]float64{
	"RELIANCE":  2450,
	"TCS":       3200,
	"INFY":      1800,
	"HDFCBANK":  1650,
	"ICICIBANK": 950,
}

const DefaultBasePrice = 1500

// Synthetic generates n five-minute bars for symbol as a deterministic
// log-normal random walk, clipped to NSE trading hours (09:00-16:00, IST
// assumed local). The same seed always yields the same series, which keeps
// backtests repeatable when no broker API is reachable.
func Synthetic(symbol string, n int, start time.Time, seed int64) []Bar {
	rng := rand.New(rand.NewSource(seed))

	base, ok := basePrices[symbol]
	if !ok {
		base = DefaultBasePrice
	}

	bars := make([]Bar, 0, n)
	ts := start
	logPrice := math.Log(base)

	for len(bars) < n {
		ts = ts.Add(5 * time.Minute)
		if h := ts.Hour(); h < 9 || h >= 16 {
			// Skip to next trading morning.
			next := ts
			if h >= 16 {
				next = next.AddDate(0, 0, 1)
			}
			ts = time.Date(next.Year(), next.Month(), next.Day(), 9, 0, 0, 0, next.Location())
		}

		logPrice += rng.NormFloat64() * 0.001
		closeP := math.Exp(logPrice)
		openP := closeP * (1 + rng.NormFloat64()*0.002)
		high := math.Max(openP, closeP) * (1 + math.Abs(rng.NormFloat64()*0.005))
		low := math.Min(openP, closeP) * (1 - math.Abs(rng.NormFloat64()*0.005))
		volume := int64(math.Exp(11 + rng.NormFloat64()*0.8))

		bars = append(bars, Bar{
			Time:   ts,
			Open:   round2(openP),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closeP),
			Volume: volume,
		})
	}

	return bars
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
