package strategy

import (
	"context"
	"fmt"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/indicators"
	"github.com/rdholakia/kaagaz/journal"
	"github.com/rdholakia/kaagaz/market"
)

// Config tunes MACrossRSI. Zero values are replaced with the defaults
// from Defaults().
type Config struct {
	FastPeriod   int     `yaml:"fast_period"`
	SlowPeriod   int     `yaml:"slow_period"`
	RSIPeriod    int     `yaml:"rsi_period"`
	RSIEntryMax  float64 `yaml:"rsi_entry_max"` // skip entries above this
	RSIExitMin   float64 `yaml:"rsi_exit_min"`  // force exits above this
	Quantity     int     `yaml:"quantity"`      // shares per order
	MaxPositions int     `yaml:"max_positions"` // concurrent open symbols
}

func Defaults() Config {
	return Config{
		FastPeriod:   10,
		SlowPeriod:   30,
		RSIPeriod:    14,
		RSIEntryMax:  70,
		RSIExitMin:   80,
		Quantity:     10,
		MaxPositions: 3,
	}
}

func (c *Config) fill() {
	d := Defaults()
	if c.FastPeriod <= 0 {
		c.FastPeriod = d.FastPeriod
	}
	if c.SlowPeriod <= 0 {
		c.SlowPeriod = d.SlowPeriod
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = d.RSIPeriod
	}
	if c.RSIEntryMax <= 0 {
		c.RSIEntryMax = d.RSIEntryMax
	}
	if c.RSIExitMin <= 0 {
		c.RSIExitMin = d.RSIExitMin
	}
	if c.Quantity <= 0 {
		c.Quantity = d.Quantity
	}
	if c.MaxPositions <= 0 {
		c.MaxPositions = d.MaxPositions
	}
}

// MACrossRSI trades a fast/slow SMA crossover with an RSI filter.
// - Enters long when the fast MA crosses above the slow MA and RSI is
//   below the entry ceiling.
// - Exits on the opposite cross, or when RSI runs past the exit floor.
// - One position per symbol, long only, fixed share quantity.
// Every signal is journaled whether it executed or not.
type MACrossRSI struct {
	cfg Config
	jnl journal.Journal

	closes map[string][]float64
	cross  map[string]*indicators.Crossover
	open   map[string]bool
}

func NewMACrossRSI(cfg Config, jnl journal.Journal) *MACrossRSI {
	cfg.fill()

	return &MACrossRSI{
		cfg:    cfg,
		jnl:    jnl,
		closes: make(map[string][]float64),
		cross:  make(map[string]*indicators.Crossover),
		open:   make(map[string]bool),
	}
}

func (s *MACrossRSI) OnBar(ctx context.Context, b broker.Broker, symbol string, bar market.Bar) error {
	closes := s.observe(symbol, bar.Close)

	fast, fastOK := indicators.SMA(closes, s.cfg.FastPeriod)
	slow, slowOK := indicators.SMA(closes, s.cfg.SlowPeriod)
	if !fastOK || !slowOK {
		return nil
	}

	cross := s.cross[symbol]
	if cross == nil {
		cross = &indicators.Crossover{}
		s.cross[symbol] = cross
	}
	dir := cross.Observe(fast, slow)

	rsi, rsiOK := indicators.RSI(closes, s.cfg.RSIPeriod)

	holding := b.PositionOf(symbol).Quantity > 0
	s.open[symbol] = holding

	if holding {
		switch {
		case dir < 0:
			return s.exit(ctx, b, symbol, bar, fast, slow, rsi, "fast MA crossed below slow MA")
		case rsiOK && rsi > s.cfg.RSIExitMin:
			return s.exit(ctx, b, symbol, bar, fast, slow, rsi,
				fmt.Sprintf("RSI %.1f above exit threshold %.1f", rsi, s.cfg.RSIExitMin))
		}
		return nil
	}

	if dir > 0 {
		return s.enter(ctx, b, symbol, bar, fast, slow, rsi, rsiOK)
	}

	return nil
}

func (s *MACrossRSI) enter(ctx context.Context, b broker.Broker, symbol string, bar market.Bar, fast, slow, rsi float64, rsiOK bool) error {
	if rsiOK && rsi >= s.cfg.RSIEntryMax {
		return s.signal(journal.SignalRecord{
			Time: bar.Time, Symbol: symbol, Type: string(broker.Buy),
			Reason: fmt.Sprintf("crossover skipped, RSI %.1f at or above %.1f", rsi, s.cfg.RSIEntryMax),
			Price:  bar.Close, FastMA: fast, SlowMA: slow, RSI: rsi,
		})
	}

	if s.openCount() >= s.cfg.MaxPositions {
		return s.signal(journal.SignalRecord{
			Time: bar.Time, Symbol: symbol, Type: string(broker.Buy),
			Reason: fmt.Sprintf("crossover skipped, %d positions already open", s.openCount()),
			Price:  bar.Close, FastMA: fast, SlowMA: slow, RSI: rsi,
		})
	}

	rec := journal.SignalRecord{
		Time: bar.Time, Symbol: symbol, Type: string(broker.Buy),
		Reason: "fast MA crossed above slow MA",
		Price:  bar.Close, FastMA: fast, SlowMA: slow, RSI: rsi,
	}

	res, err := b.Submit(ctx, broker.OrderIntent{Symbol: symbol, Side: broker.Buy, Quantity: s.cfg.Quantity})
	if err != nil {
		return fmt.Errorf("submit buy %s: %w", symbol, err)
	}

	rec.Executed = res.Status == broker.StatusCompleted
	if rec.Executed {
		s.open[symbol] = true
	}

	return s.signal(rec)
}

func (s *MACrossRSI) exit(ctx context.Context, b broker.Broker, symbol string, bar market.Bar, fast, slow, rsi float64, reason string) error {
	qty := b.PositionOf(symbol).Quantity

	rec := journal.SignalRecord{
		Time: bar.Time, Symbol: symbol, Type: string(broker.Sell),
		Reason: reason,
		Price:  bar.Close, FastMA: fast, SlowMA: slow, RSI: rsi,
	}

	res, err := b.Submit(ctx, broker.OrderIntent{Symbol: symbol, Side: broker.Sell, Quantity: qty})
	if err != nil {
		return fmt.Errorf("submit sell %s: %w", symbol, err)
	}

	rec.Executed = res.Status == broker.StatusCompleted
	if rec.Executed {
		s.open[symbol] = false
	}

	return s.signal(rec)
}

// observe appends a close, bounded to what the slowest indicator needs.
func (s *MACrossRSI) observe(symbol string, close float64) []float64 {
	closes := append(s.closes[symbol], close)

	max := s.cfg.SlowPeriod
	if s.cfg.RSIPeriod+1 > max {
		max = s.cfg.RSIPeriod + 1
	}
	// Keep extra history so talib's smoothing has room to settle.
	max *= 4

	if len(closes) > max {
		closes = closes[len(closes)-max:]
	}
	s.closes[symbol] = closes

	return closes
}

func (s *MACrossRSI) openCount() int {
	n := 0
	for _, open := range s.open {
		if open {
			n++
		}
	}
	return n
}

func (s *MACrossRSI) signal(rec journal.SignalRecord) error {
	if s.jnl == nil {
		return nil
	}
	return s.jnl.RecordSignal(rec)
}
