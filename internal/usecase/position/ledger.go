package position

import (
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	orderbookv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/orderbook/v1"
	positionv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/position/v1"
)

// MarkFn resolves the mark price for an instrument at query time.
type MarkFn func(marketv1.InstrumentID) marketv1.Price

// Ledger maintains every user's positions and realized P&L per instrument.
//
// The ledger carries no lock of its own; the engine serializes access.
type Ledger struct {
	positions map[marketv1.UserID]map[marketv1.InstrumentID]*positionv1.Position
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		positions: make(map[marketv1.UserID]map[marketv1.InstrumentID]*positionv1.Position),
	}
}

// Apply folds one fill into its user's position.
func (l *Ledger) Apply(fill orderbookv1.Fill) {
	pos := l.getOrCreate(fill.UserID, fill.InstrumentID)
	pos.ApplyFill(fill.Side, fill.Price, fill.Quantity)
}

// NetQty returns the user's current signed position in an instrument.
func (l *Ledger) NetQty(userID marketv1.UserID, instrumentID marketv1.InstrumentID) marketv1.Quantity {
	if byInstrument, ok := l.positions[userID]; ok {
		if pos, ok := byInstrument[instrumentID]; ok {
			return pos.NetQty
		}
	}
	return 0
}

// Get returns a copy of the user's position in an instrument.
func (l *Ledger) Get(userID marketv1.UserID, instrumentID marketv1.InstrumentID) (positionv1.Position, bool) {
	if byInstrument, ok := l.positions[userID]; ok {
		if pos, ok := byInstrument[instrumentID]; ok {
			return *pos, true
		}
	}
	return positionv1.Position{}, false
}

// Positions returns copies of the user's open positions, each valued against
// the supplied mark. Flat positions are not enumerated.
func (l *Ledger) Positions(userID marketv1.UserID, mark MarkFn) []positionv1.Position {
	byInstrument, ok := l.positions[userID]
	if !ok {
		return nil
	}

	var result []positionv1.Position
	for instrumentID, pos := range byInstrument {
		if pos.NetQty == 0 {
			continue
		}
		p := *pos
		p.UnrealizedPnL = pos.UnrealizedAt(mark(instrumentID))
		result = append(result, p)
	}
	return result
}

// TotalPnL sums realized and unrealized P&L over all of the user's
// instruments. Closed positions still contribute their realized P&L.
func (l *Ledger) TotalPnL(userID marketv1.UserID, mark MarkFn) float64 {
	byInstrument, ok := l.positions[userID]
	if !ok {
		return 0
	}

	var total float64
	for instrumentID, pos := range byInstrument {
		total += pos.RealizedPnL
		if pos.NetQty != 0 {
			total += pos.UnrealizedAt(mark(instrumentID))
		}
	}
	return total
}

// Settle realizes the terminal cash flow for every open position in an
// instrument and flattens them.
func (l *Ledger) Settle(instrumentID marketv1.InstrumentID, payoffPerUnit, tickValue float64) {
	for _, byInstrument := range l.positions {
		if pos, ok := byInstrument[instrumentID]; ok {
			pos.Settle(payoffPerUnit, tickValue)
		}
	}
}

func (l *Ledger) getOrCreate(userID marketv1.UserID, instrumentID marketv1.InstrumentID) *positionv1.Position {
	byInstrument, ok := l.positions[userID]
	if !ok {
		byInstrument = make(map[marketv1.InstrumentID]*positionv1.Position)
		l.positions[userID] = byInstrument
	}

	pos, ok := byInstrument[instrumentID]
	if !ok {
		pos = &positionv1.Position{InstrumentID: instrumentID}
		byInstrument[instrumentID] = pos
	}
	return pos
}
