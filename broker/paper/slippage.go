package paper

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rdholakia/kaagaz/broker"
)

// SlippedBroker decorates a Broker with a fixed-percentage slippage model
// for market orders: fills are worse for the trader on both sides, price
// plus slippage on buys and price minus slippage on sells. Limit orders
// pass through untouched, as do all reads.
type SlippedBroker struct {
	inner *Broker
	pct   decimal.Decimal // 0.05 means 0.05%
}

// WithSlippage wraps b. pct is expressed in percent, matching broker
// marketing material (0.05 = five basis points).
func WithSlippage(b *Broker, pct float64) *SlippedBroker {
	return &SlippedBroker{
		inner: b,
		pct:   decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)),
	}
}

func (s *SlippedBroker) Submit(ctx context.Context, intent broker.OrderIntent) (broker.OrderResult, error) {
	if intent.LimitPrice == nil {
		s.inner.mu.Lock()
		mark, ok := s.inner.marks[intent.Symbol]
		s.inner.mu.Unlock()

		if ok {
			adj := mark.Mul(s.pct)
			if intent.Side == broker.Sell {
				adj = adj.Neg()
			}
			slipped, _ := mark.Add(adj).Float64()
			intent.LimitPrice = &slipped
		}
	}

	return s.inner.Submit(ctx, intent)
}

func (s *SlippedBroker) Cancel(ctx context.Context, orderID string) (broker.OrderResult, error) {
	return s.inner.Cancel(ctx, orderID)
}

func (s *SlippedBroker) Cash() decimal.Decimal           { return s.inner.Cash() }
func (s *SlippedBroker) PortfolioValue() decimal.Decimal { return s.inner.PortfolioValue() }

func (s *SlippedBroker) PositionOf(symbol string) broker.Position {
	return s.inner.PositionOf(symbol)
}

func (s *SlippedBroker) Positions() map[string]broker.Position {
	return s.inner.Positions()
}

func (s *SlippedBroker) MarkPrice(symbol string, price float64, at time.Time) {
	s.inner.MarkPrice(symbol, price, at)
}
