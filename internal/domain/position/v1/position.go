package positionv1

import (
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// Position tracks one user's net exposure to one instrument.
//
// VWAP is defined only while NetQty is non-zero; it is stored as zero when
// flat. UnrealizedPnL is derived on query, never authoritative.
type Position struct {
	InstrumentID  marketv1.InstrumentID `json:"instrumentID"`
	NetQty        marketv1.Quantity     `json:"netQty"`
	VWAP          marketv1.Price        `json:"vwap"`
	RealizedPnL   float64               `json:"realizedPnL"`
	UnrealizedPnL float64               `json:"unrealizedPnL"`
}

// IsFlat reports whether the position carries no exposure and no history.
func (p *Position) IsFlat() bool {
	return p.NetQty == 0 && p.RealizedPnL == 0
}

// ApplyFill folds one fill into the position.
//
// Adding to a position moves the VWAP as a quantity-weighted average.
// Reducing realizes P&L on the closed portion against the entry VWAP, with
// the sign taken from the pre-fill position. A fill that flips the position
// through zero re-opens the remainder at the fill price.
func (p *Position) ApplyFill(side marketv1.Side, price marketv1.Price, qty marketv1.Quantity) {
	delta := side.Sign() * qty

	switch {
	case p.NetQty == 0:
		p.VWAP = price
		p.NetQty = delta

	case (p.NetQty > 0) == (delta > 0):
		absOld := abs(p.NetQty)
		p.VWAP = (p.VWAP*marketv1.Price(absOld) + price*marketv1.Price(qty)) / marketv1.Price(absOld+qty)
		p.NetQty += delta

	default:
		closed := min(abs(p.NetQty), qty)
		perUnit := (price - p.VWAP).Dollars()
		if p.NetQty < 0 {
			perUnit = -perUnit
		}
		p.RealizedPnL += perUnit * float64(closed)

		flipped := qty > abs(p.NetQty)
		p.NetQty += delta
		if p.NetQty == 0 {
			p.VWAP = 0
		} else if flipped {
			p.VWAP = price
		}
	}
}

// UnrealizedAt values the open position against a mark price. A mark of zero
// means no mark is available and values the position at zero.
func (p *Position) UnrealizedAt(mark marketv1.Price) float64 {
	if p.NetQty == 0 || mark <= 0 {
		return 0
	}
	return (mark - p.VWAP).Dollars() * float64(p.NetQty)
}

// Settle realizes the terminal cash flow for a declared payoff per unit and
// flattens the position. PayoffPerUnit and the entry cost both carry the
// instrument's tick value.
func (p *Position) Settle(payoffPerUnit, tickValue float64) {
	if p.NetQty == 0 {
		return
	}

	entryPerUnit := p.VWAP.Dollars() * tickValue
	p.RealizedPnL += (payoffPerUnit - entryPerUnit) * float64(p.NetQty)
	p.NetQty = 0
	p.VWAP = 0
	p.UnrealizedPnL = 0
}

func abs(q marketv1.Quantity) marketv1.Quantity {
	if q < 0 {
		return -q
	}
	return q
}

func min(a, b marketv1.Quantity) marketv1.Quantity {
	if a < b {
		return a
	}
	return b
}
