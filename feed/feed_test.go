package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/market"
)

func bar(t time.Time, close float64) market.Bar {
	return market.Bar{Time: t, Open: close, High: close, Low: close, Close: close, Volume: 100}
}

func TestSliceMergesByTimestamp(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	s := NewSlice(map[string][]market.Bar{
		"TCS":      {bar(base, 1), bar(base.Add(10*time.Minute), 3)},
		"RELIANCE": {bar(base.Add(5*time.Minute), 2), bar(base.Add(10*time.Minute), 4)},
	})

	assert.Equal(t, 4, s.Len())

	var got []Event
	for {
		ev, ok := s.Next()
		if !ok {
			break
		}
		got = append(got, ev)
	}

	require.Len(t, got, 4)
	assert.Equal(t, "TCS", got[0].Symbol)
	assert.Equal(t, "RELIANCE", got[1].Symbol)
	// Equal timestamps come out in lexical symbol order.
	assert.Equal(t, "RELIANCE", got[2].Symbol)
	assert.Equal(t, "TCS", got[3].Symbol)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Bar.Time.Before(got[i-1].Bar.Time))
	}

	_, ok := s.Next()
	assert.False(t, ok, "exhausted feed stays exhausted")
}

type stubBarSource struct {
	mu    sync.Mutex
	bars  map[string][]market.Bar
	errs  map[string]error
	calls int
}

func (s *stubBarSource) HistoricalBars(_ context.Context, inst market.Instrument, _ market.Interval, _, _ time.Time) ([]market.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if err := s.errs[inst.Symbol]; err != nil {
		return nil, err
	}
	return s.bars[inst.Symbol], nil
}

func TestLoadFromSource(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	reliance, _ := market.Lookup("RELIANCE")

	src := &stubBarSource{bars: map[string][]market.Bar{
		"RELIANCE": {bar(base, 2450), bar(base.Add(5*time.Minute), 2460)},
	}}

	series, err := Load(context.Background(), src, []market.Instrument{reliance}, LoadOptions{
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	require.Len(t, series["RELIANCE"], 2)
	assert.Equal(t, 1, src.calls)
}

func TestLoadSyntheticFallback(t *testing.T) {
	t.Parallel()

	reliance, _ := market.Lookup("RELIANCE")
	tcs, _ := market.Lookup("TCS")

	src := &stubBarSource{
		bars: map[string][]market.Bar{
			"TCS": {bar(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC), 3200)},
		},
		errs: map[string]error{
			"RELIANCE": broker.ErrDataUnavailable,
		},
	}

	series, err := Load(context.Background(), src, []market.Instrument{reliance, tcs}, LoadOptions{
		SyntheticFallback: true,
		SyntheticBars:     50,
		Seed:              42,
		From:              time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		Logger:            zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Len(t, series["RELIANCE"], 50, "unavailable symbol filled synthetically")
	assert.Len(t, series["TCS"], 1)
}

func TestLoadAbortsWithoutFallback(t *testing.T) {
	t.Parallel()

	reliance, _ := market.Lookup("RELIANCE")

	src := &stubBarSource{errs: map[string]error{"RELIANCE": broker.ErrDataUnavailable}}

	_, err := Load(context.Background(), src, []market.Instrument{reliance}, LoadOptions{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, broker.ErrDataUnavailable)

	// Empty result without an error is the same condition.
	src = &stubBarSource{}
	_, err = Load(context.Background(), src, []market.Instrument{reliance}, LoadOptions{Logger: zerolog.Nop()})
	assert.ErrorIs(t, err, broker.ErrDataUnavailable)
}

func TestLoadTransportErrorPropagates(t *testing.T) {
	t.Parallel()

	reliance, _ := market.Lookup("RELIANCE")
	boom := errors.New("connection refused")

	src := &stubBarSource{errs: map[string]error{"RELIANCE": boom}}

	_, err := Load(context.Background(), src, []market.Instrument{reliance}, LoadOptions{
		SyntheticFallback: true,
		Logger:            zerolog.Nop(),
	})
	assert.ErrorIs(t, err, boom, "only DataUnavailable falls back")
}

func TestLoadNilSourceIsSynthetic(t *testing.T) {
	t.Parallel()

	tcs, _ := market.Lookup("TCS")

	series, err := Load(context.Background(), nil, []market.Instrument{tcs}, LoadOptions{
		SyntheticBars: 30,
		Seed:          7,
		From:          time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	assert.Len(t, series["TCS"], 30)
}

type stubQuoter struct {
	mu    sync.Mutex
	price float64
}

func (q *stubQuoter) LTP(context.Context, market.Instrument) (float64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.price += 1
	return q.price, nil
}

func TestLiveFeed(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infy, _ := market.Lookup("INFY")

	f := NewLive(ctx, &stubQuoter{price: 1800}, []market.Instrument{infy}, 5*time.Millisecond, zerolog.Nop())

	ev, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "INFY", ev.Symbol)
	assert.Equal(t, ev.Bar.Close, ev.Bar.Open, "polled quote becomes a single-price bar")

	ev2, ok := f.Next()
	require.True(t, ok)
	assert.Greater(t, ev2.Bar.Close, ev.Bar.Close)

	cancel()

	select {
	case <-f.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}

	// Drain; the closed channel ends the feed.
	for {
		if _, ok := f.Next(); !ok {
			break
		}
	}
}
