// Package broker defines the order/position domain types and the ports a
// trading session plugs together: an accounting Broker, a historical
// BarSource and a live Quoter.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rdholakia/kaagaz/market"
)

// Domain rejections. Both are order-scoped and recoverable: the order is
// rejected, the portfolio is untouched and the session continues.
var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
)

// ErrDataUnavailable signals that a bar source failed or returned an empty
// series. Feeds fall back to synthetic data; they never crash the session.
var ErrDataUnavailable = errors.New("historical data unavailable")

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderIntent is a single order request from a strategy. LimitPrice nil
// means market-order semantics: fill at the latest known price.
type OrderIntent struct {
	Symbol     string
	Side       Side
	Quantity   int
	LimitPrice *float64
}

// Fill is the resolved execution of an order. Quantity is signed: positive
// for buys, negative for sells. Immutable once attached to a result.
type Fill struct {
	Price      decimal.Decimal
	Quantity   int
	Commission decimal.Decimal
	Time       time.Time
}

// OrderResult reports how an intent resolved. Err carries the domain
// rejection (ErrInsufficientFunds / ErrInsufficientPosition) when Status is
// StatusRejected.
type OrderResult struct {
	OrderID string
	Symbol  string
	Side    Side
	Status  OrderStatus
	Fill    Fill
	Err     error
}

// Position is the per-symbol holding. Quantity is always >= 0 (no shorts).
// AvgPrice is the quantity-weighted cost basis, zero when flat. LastPrice
// is the most recent mark used for valuation.
type Position struct {
	Symbol    string
	Quantity  int
	AvgPrice  decimal.Decimal
	LastPrice decimal.Decimal
}

// Broker is the accounting surface a strategy trades against. Submit and
// Cancel resolve synchronously; the read methods never create state.
type Broker interface {
	Submit(ctx context.Context, intent OrderIntent) (OrderResult, error)
	Cancel(ctx context.Context, orderID string) (OrderResult, error)

	Cash() decimal.Decimal
	PortfolioValue() decimal.Decimal
	PositionOf(symbol string) Position
	Positions() map[string]Position

	// MarkPrice records the latest traded price for a symbol. Sessions call
	// it once per bar before the strategy runs; at becomes the timestamp on
	// any fill the next Submit produces.
	MarkPrice(symbol string, price float64, at time.Time)
}

// BarSource fetches historical bars for one instrument. Implementations
// must return series strictly increasing in time, or ErrDataUnavailable.
type BarSource interface {
	HistoricalBars(ctx context.Context, inst market.Instrument, interval market.Interval, from, to time.Time) ([]market.Bar, error)
}

// Quoter returns the last traded price for one instrument.
type Quoter interface {
	LTP(ctx context.Context, inst market.Instrument) (float64, error)
}
