package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/market"
)

// Live polls a quoter in the background and turns each quote into a
// single-price bar. One producer goroutine, one consumer (the session
// loop), one channel between them; the poller never touches portfolio
// state. Stop via the context passed to NewLive.
type Live struct {
	ch   chan Event
	done chan struct{}
}

// NewLive starts the poller. The feed ends when ctx is cancelled; Next
// then reports ok=false once the channel drains.
func NewLive(ctx context.Context, quoter broker.Quoter, instruments []market.Instrument, every time.Duration, logger zerolog.Logger) *Live {
	f := &Live{
		ch:   make(chan Event, len(instruments)*4),
		done: make(chan struct{}),
	}

	go f.poll(ctx, quoter, instruments, every, logger)

	return f
}

func (f *Live) Next() (Event, bool) {
	ev, ok := <-f.ch
	return ev, ok
}

// Done closes after the poller goroutine exits.
func (f *Live) Done() <-chan struct{} { return f.done }

func (f *Live) poll(ctx context.Context, quoter broker.Quoter, instruments []market.Instrument, every time.Duration, logger zerolog.Logger) {
	defer close(f.done)
	defer close(f.ch)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := time.Now()

		for _, inst := range instruments {
			ltp, err := quoter.LTP(ctx, inst)
			if err != nil {
				logger.Warn().Str("symbol", inst.Symbol).Err(err).Msg("quote poll failed")
				continue
			}

			ev := Event{
				Symbol: inst.Symbol,
				Bar:    market.Bar{Time: now, Open: ltp, High: ltp, Low: ltp, Close: ltp},
			}

			select {
			case f.ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
