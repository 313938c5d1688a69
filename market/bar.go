package market

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV candlestick for a single instrument.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Interval is a bar interval in broker-API vocabulary.
type Interval string

const (
	Minute        Interval = "minute"
	FiveMinute    Interval = "5minute"
	FifteenMinute Interval = "15minute"
	Hour          Interval = "60minute"
	Day           Interval = "day"
)

// Duration returns the wall-clock span of one bar.
func (i Interval) Duration() time.Duration {
	switch i {
	case Minute:
		return time.Minute
	case FiveMinute:
		return 5 * time.Minute
	case FifteenMinute:
		return 15 * time.Minute
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	default:
		return 5 * time.Minute
	}
}

// ValidateSeries checks that a bar series is non-empty and strictly
// increasing in time. Feeds must only hand validated series to a session.
func ValidateSeries(bars []Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("empty bar series")
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d at %s is not after previous bar at %s",
				i, bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
