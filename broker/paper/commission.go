package paper

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CommissionPolicy prices the brokerage charge for one order. The broker
// never hardcodes a policy; pick one at construction time.
type CommissionPolicy interface {
	Commission(tradeValue decimal.Decimal) decimal.Decimal
	String() string
}

// Flat charges a fixed amount per order, the discount-broker model
// (e.g. Rs 20 per executed order).
type Flat struct {
	amount decimal.Decimal
}

func NewFlat(amount float64) Flat {
	return Flat{amount: decimal.NewFromFloat(amount)}
}

func (c Flat) Commission(decimal.Decimal) decimal.Decimal {
	return c.amount
}

func (c Flat) String() string {
	return fmt.Sprintf("flat %s per order", c.amount)
}

// Percent charges a fraction of trade value (0.001 = 0.1%).
type Percent struct {
	rate decimal.Decimal
}

func NewPercent(rate float64) Percent {
	return Percent{rate: decimal.NewFromFloat(rate)}
}

func (c Percent) Commission(tradeValue decimal.Decimal) decimal.Decimal {
	return tradeValue.Mul(c.rate)
}

func (c Percent) String() string {
	return fmt.Sprintf("%s%% of trade value", c.rate.Mul(decimal.NewFromInt(100)))
}

// None charges nothing. Useful for strategy experiments where commission
// drag should not show up in the numbers.
type None struct{}

func (None) Commission(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (None) String() string { return "none" }
