// Package feed delivers time-ordered bars to a session, either from a
// pre-loaded batch or from a background poller.
package feed

import (
	"sort"

	"github.com/rdholakia/kaagaz/market"
)

// Event is one bar for one symbol.
type Event struct {
	Symbol string
	Bar    market.Bar
}

// Feed hands out events in timestamp order. Next returns ok=false when
// the feed is exhausted.
type Feed interface {
	Next() (Event, bool)
}

// Slice replays a fixed set of per-symbol series merged into one
// timestamp-ordered stream. Within a timestamp, symbols come out in
// lexical order so runs are reproducible.
type Slice struct {
	events []Event
	pos    int
}

// NewSlice merges series into a Slice. Each series must already be
// time-ordered per symbol; market.ValidateSeries enforces that upstream.
func NewSlice(series map[string][]market.Bar) *Slice {
	var events []Event

	for symbol, bars := range series {
		for _, bar := range bars {
			events = append(events, Event{Symbol: symbol, Bar: bar})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Bar.Time.Equal(events[j].Bar.Time) {
			return events[i].Bar.Time.Before(events[j].Bar.Time)
		}
		return events[i].Symbol < events[j].Symbol
	})

	return &Slice{events: events}
}

func (s *Slice) Next() (Event, bool) {
	if s.pos >= len(s.events) {
		return Event{}, false
	}

	ev := s.events[s.pos]
	s.pos++

	return ev, true
}

// Len reports how many events remain.
func (s *Slice) Len() int {
	return len(s.events) - s.pos
}

// Limit caps a feed at n events, used to bound live sessions.
func Limit(f Feed, n int) Feed {
	return &limited{inner: f, left: n}
}

type limited struct {
	inner Feed
	left  int
}

func (l *limited) Next() (Event, bool) {
	if l.left <= 0 {
		return Event{}, false
	}
	l.left--

	return l.inner.Next()
}
