package market

import "fmt"

// Instrument maps a human trading symbol to the identifiers each broker
// API wants. KiteToken is Zerodha's numeric instrument token; DhanSecurityID
// is Dhan's security id string for the same listing.
type Instrument struct {
	Symbol         string
	Exchange       string
	KiteToken      int64
	DhanSecurityID string
	LotSize        int
}

// Instruments is the default NSE equity universe. Sessions may override it
// from configuration; lookups outside the table are an error, not a guess.
var Instruments = map[string]Instrument{
	"RELIANCE":  {Symbol: "RELIANCE", Exchange: "NSE", KiteToken: 738561, DhanSecurityID: "2885", LotSize: 1},
	"TCS":       {Symbol: "TCS", Exchange: "NSE", KiteToken: 2953217, DhanSecurityID: "11536", LotSize: 1},
	"INFY":      {Symbol: "INFY", Exchange: "NSE", KiteToken: 408065, DhanSecurityID: "1594", LotSize: 1},
	"HDFCBANK":  {Symbol: "HDFCBANK", Exchange: "NSE", KiteToken: 341249, DhanSecurityID: "1333", LotSize: 1},
	"ICICIBANK": {Symbol: "ICICIBANK", Exchange: "NSE", KiteToken: 1270529, DhanSecurityID: "4963", LotSize: 1},
}

// Lookup resolves a symbol against the instrument table.
func Lookup(symbol string) (Instrument, error) {
	inst, ok := Instruments[symbol]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument %q", symbol)
	}
	return inst, nil
}
