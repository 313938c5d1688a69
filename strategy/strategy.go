// Package strategy holds the bar-driven trading strategies and their
// registry. A strategy sees one bar at a time and may place orders
// through the broker it is handed.
package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/journal"
	"github.com/rdholakia/kaagaz/market"
)

// Strategy is the minimal interface a session strategy must implement.
// OnBar is called once per bar, after the broker has been marked with
// the bar's close.
type Strategy interface {
	OnBar(ctx context.Context, b broker.Broker, symbol string, bar market.Bar) error
}

// ByName builds a strategy from its config-file name.
func ByName(name string, cfg Config, jnl journal.Journal) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "ma-cross-rsi", "macrossrsi", "":
		return NewMACrossRSI(cfg, jnl), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, ma-cross-rsi)", name)
	}
}

// Noop ignores every bar.
type Noop struct{}

func (Noop) OnBar(ctx context.Context, b broker.Broker, symbol string, bar market.Bar) error {
	_ = ctx
	_ = b
	_ = symbol
	_ = bar
	return nil
}
