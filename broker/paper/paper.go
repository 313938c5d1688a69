// Package paper implements the in-process accounting broker that simulates
// order execution for one paper-trading session. It is the only component
// allowed to move simulated money: it resolves fills, charges commission,
// mutates cash and positions, and answers valuation queries.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/internal/id"
	"github.com/rdholakia/kaagaz/journal"
)

// Config is fixed at construction and never mutated during a session.
type Config struct {
	InitialCash float64
	Commission  CommissionPolicy
	Journal     journal.Journal // optional
	Logger      zerolog.Logger
}

// Broker owns the Portfolio for one session: cash plus per-symbol
// positions. One instance per session; nothing is shared across sessions.
type Broker struct {
	mu         sync.Mutex
	cash       decimal.Decimal
	positions  map[string]*broker.Position
	marks      map[string]decimal.Decimal
	clock      time.Time
	results    map[string]broker.OrderResult
	commission CommissionPolicy
	journal    journal.Journal
	log        zerolog.Logger
}

// NewBroker builds the accounting broker. A non-positive initial cash
// balance is the one fatal construction error: no session can start on it.
func NewBroker(cfg Config) (*Broker, error) {
	if cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("initial cash must be positive, got %v", cfg.InitialCash)
	}
	if cfg.Commission == nil {
		cfg.Commission = None{}
	}

	return &Broker{
		cash:       decimal.NewFromFloat(cfg.InitialCash),
		positions:  make(map[string]*broker.Position),
		marks:      make(map[string]decimal.Decimal),
		results:    make(map[string]broker.OrderResult),
		commission: cfg.Commission,
		journal:    cfg.Journal,
		log:        cfg.Logger,
	}, nil
}

// MarkPrice records the latest traded price for a symbol. The session
// calls it once per bar, before the strategy sees the bar.
func (b *Broker) MarkPrice(symbol string, price float64, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.marks[symbol] = decimal.NewFromFloat(price)
	if at.After(b.clock) {
		b.clock = at
	}
	if pos, ok := b.positions[symbol]; ok {
		pos.LastPrice = b.marks[symbol]
	}
}

// Cash returns the current cash balance.
func (b *Broker) Cash() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.cash
}

// PortfolioValue returns cash plus every position marked at its last
// known price.
func (b *Broker) PortfolioValue() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.valueLocked()
}

// ValueWith prices the current positions against caller-supplied marks
// instead of the stored ones. Pure: no state is read beyond a snapshot,
// none is written.
func (b *Broker) ValueWith(marks map[string]float64) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := b.cash

	for sym, pos := range b.positions {
		if pos.Quantity == 0 {
			continue
		}
		mark, ok := marks[sym]
		if !ok {
			mark, _ = pos.LastPrice.Float64()
		}
		total = total.Add(decimal.NewFromFloat(mark).Mul(decimal.NewFromInt(int64(pos.Quantity))))
	}

	return total
}

// PositionOf returns the stored position, or a zero-value default for a
// symbol that never traded. Reads never create state.
func (b *Broker) PositionOf(symbol string) broker.Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pos, ok := b.positions[symbol]; ok {
		return *pos
	}

	return broker.Position{Symbol: symbol}
}

// Positions returns a copy of every position ever opened this session,
// zero-quantity entries included.
func (b *Broker) Positions() map[string]broker.Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]broker.Position, len(b.positions))
	for sym, pos := range b.positions {
		out[sym] = *pos
	}

	return out
}

// Submit resolves an order intent synchronously: price, commission,
// sufficiency checks, then the cash/position mutation, applied in full or
// not at all. Domain rejections come back as a Rejected result with a nil
// error; the session keeps running.
func (b *Broker) Submit(ctx context.Context, intent broker.OrderIntent) (broker.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderResult{}, err
	}
	if intent.Quantity <= 0 {
		return broker.OrderResult{}, fmt.Errorf("order quantity must be positive, got %d", intent.Quantity)
	}
	if intent.Side != broker.Buy && intent.Side != broker.Sell {
		return broker.OrderResult{}, fmt.Errorf("unknown order side %q", intent.Side)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	price, err := b.executionPriceLocked(intent)
	if err != nil {
		return broker.OrderResult{}, err
	}

	qty := decimal.NewFromInt(int64(intent.Quantity))
	tradeValue := price.Mul(qty)
	commission := b.commission.Commission(tradeValue)

	result := broker.OrderResult{
		OrderID: id.New(),
		Symbol:  intent.Symbol,
		Side:    intent.Side,
	}

	if intent.Side == broker.Buy {
		cost := tradeValue.Add(commission)
		if cost.GreaterThan(b.cash) {
			return b.rejectLocked(result, price, intent.Quantity, commission, broker.ErrInsufficientFunds), nil
		}

		b.cash = b.cash.Sub(cost)
		b.applyBuyLocked(intent.Symbol, intent.Quantity, price)

		result.Status = broker.StatusCompleted
		result.Fill = broker.Fill{Price: price, Quantity: intent.Quantity, Commission: commission, Time: b.clock}

		b.finishLocked(result, decimal.Zero)

		return result, nil
	}

	// SELL
	held := 0
	if pos, ok := b.positions[intent.Symbol]; ok {
		held = pos.Quantity
	}
	if intent.Quantity > held {
		return b.rejectLocked(result, price, intent.Quantity, commission, broker.ErrInsufficientPosition), nil
	}

	pos := b.positions[intent.Symbol]

	// Average-cost realized P&L, decided at fill time.
	realized := price.Sub(pos.AvgPrice).Mul(qty).Sub(commission)

	b.cash = b.cash.Add(tradeValue.Sub(commission))
	b.applySellLocked(pos, intent.Quantity, price)

	result.Status = broker.StatusCompleted
	result.Fill = broker.Fill{Price: price, Quantity: -intent.Quantity, Commission: commission, Time: b.clock}

	b.finishLocked(result, realized)

	return result, nil
}

// Cancel marks an order Cancelled. Orders resolve synchronously at submit,
// so there is nothing to unwind: cancelling an already-resolved order is
// an error, cancelling an unknown (never-submitted) intent is a no-op.
func (b *Broker) Cancel(ctx context.Context, orderID string) (broker.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if prior, ok := b.results[orderID]; ok {
		return prior, fmt.Errorf("order %s already resolved (%s)", orderID, prior.Status)
	}

	result := broker.OrderResult{OrderID: orderID, Status: broker.StatusCancelled}
	b.results[orderID] = result

	return result, nil
}

func (b *Broker) executionPriceLocked(intent broker.OrderIntent) (decimal.Decimal, error) {
	if intent.LimitPrice != nil {
		return decimal.NewFromFloat(*intent.LimitPrice), nil
	}

	mark, ok := b.marks[intent.Symbol]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no market price known for %s", intent.Symbol)
	}

	return mark, nil
}

func (b *Broker) applyBuyLocked(symbol string, qty int, price decimal.Decimal) {
	pos, ok := b.positions[symbol]
	if !ok {
		pos = &broker.Position{Symbol: symbol, AvgPrice: decimal.Zero}
		b.positions[symbol] = pos
	}

	newQty := pos.Quantity + qty
	// Weighted-average cost basis, recomputed only when quantity grows.
	totalCost := pos.AvgPrice.Mul(decimal.NewFromInt(int64(pos.Quantity))).
		Add(price.Mul(decimal.NewFromInt(int64(qty))))
	pos.AvgPrice = totalCost.Div(decimal.NewFromInt(int64(newQty)))
	pos.Quantity = newQty
	pos.LastPrice = price
}

func (b *Broker) applySellLocked(pos *broker.Position, qty int, price decimal.Decimal) {
	pos.Quantity -= qty
	if pos.Quantity == 0 {
		pos.AvgPrice = decimal.Zero
	}
	pos.LastPrice = price
}

func (b *Broker) valueLocked() decimal.Decimal {
	total := b.cash

	for _, pos := range b.positions {
		if pos.Quantity == 0 {
			continue
		}
		total = total.Add(pos.LastPrice.Mul(decimal.NewFromInt(int64(pos.Quantity))))
	}

	return total
}

func (b *Broker) rejectLocked(result broker.OrderResult, price decimal.Decimal, qty int, commission decimal.Decimal, cause error) broker.OrderResult {
	result.Status = broker.StatusRejected
	result.Err = cause
	result.Fill = broker.Fill{Price: price, Quantity: 0, Commission: decimal.Zero, Time: b.clock}

	b.results[result.OrderID] = result

	b.log.Warn().
		Str("order_id", result.OrderID).
		Str("symbol", result.Symbol).
		Str("side", string(result.Side)).
		Int("quantity", qty).
		Str("price", price.String()).
		Err(cause).
		Msg("order rejected")

	b.journalLocked(result, qty, price, commission, decimal.Zero)

	return result
}

func (b *Broker) finishLocked(result broker.OrderResult, realized decimal.Decimal) {
	b.results[result.OrderID] = result

	b.log.Info().
		Str("order_id", result.OrderID).
		Str("symbol", result.Symbol).
		Str("side", string(result.Side)).
		Int("quantity", result.Fill.Quantity).
		Str("price", result.Fill.Price.String()).
		Str("commission", result.Fill.Commission.String()).
		Str("cash", b.cash.String()).
		Msg("order filled")

	b.journalLocked(result, absInt(result.Fill.Quantity), result.Fill.Price, result.Fill.Commission, realized)
}

func (b *Broker) journalLocked(result broker.OrderResult, qty int, price, commission, realized decimal.Decimal) {
	if b.journal == nil {
		return
	}

	rec := journal.TradeRecord{
		OrderID:        result.OrderID,
		Time:           b.clock,
		Symbol:         result.Symbol,
		Side:           string(result.Side),
		Status:         string(result.Status),
		Quantity:       qty,
		Price:          toF(price),
		Commission:     toF(commission),
		RealizedPL:     toF(realized),
		Cash:           toF(b.cash),
		PortfolioValue: toF(b.valueLocked()),
	}

	if err := b.journal.RecordTrade(rec); err != nil {
		b.log.Error().Err(err).Str("order_id", result.OrderID).Msg("journal trade failed")
	}
}

func toF(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
