package positionv1

import (
	"testing"

	"github.com/stretchr/testify/assert"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// Test 1: First fill opens the position at the fill price
func TestPosition_ApplyFill_Open(t *testing.T) {
	pos := &Position{InstrumentID: 1}

	pos.ApplyFill(marketv1.SideBuy, 10000, 100)

	assert.Equal(t, marketv1.Quantity(100), pos.NetQty)
	assert.Equal(t, marketv1.Price(10000), pos.VWAP)
	assert.Equal(t, 0.0, pos.RealizedPnL)
}

// Test 2: Adding to a position moves the VWAP as a weighted average
func TestPosition_ApplyFill_Add(t *testing.T) {
	pos := &Position{InstrumentID: 1}

	pos.ApplyFill(marketv1.SideBuy, 10000, 100)
	pos.ApplyFill(marketv1.SideBuy, 11000, 100)

	assert.Equal(t, marketv1.Quantity(200), pos.NetQty)
	assert.Equal(t, marketv1.Price(10500), pos.VWAP)
	assert.Equal(t, 0.0, pos.RealizedPnL)
}

// Test 3: Closing a long realizes (exit - entry) per unit in dollars
func TestPosition_ApplyFill_CloseLong(t *testing.T) {
	pos := &Position{InstrumentID: 1}

	pos.ApplyFill(marketv1.SideBuy, 10000, 100)
	pos.ApplyFill(marketv1.SideSell, 10500, 100)

	assert.Equal(t, marketv1.Quantity(0), pos.NetQty)
	assert.Equal(t, marketv1.Price(0), pos.VWAP)
	assert.InDelta(t, 500.0, pos.RealizedPnL, 1e-9)
}

// Test 4: Closing a short realizes with the opposite sign
func TestPosition_ApplyFill_CloseShort(t *testing.T) {
	pos := &Position{InstrumentID: 1}

	pos.ApplyFill(marketv1.SideSell, 10500, 100)
	pos.ApplyFill(marketv1.SideBuy, 10000, 100)

	assert.Equal(t, marketv1.Quantity(0), pos.NetQty)
	assert.InDelta(t, 500.0, pos.RealizedPnL, 1e-9)
}

// Test 5: Flipping through zero re-opens the remainder at the fill price
func TestPosition_ApplyFill_Flip(t *testing.T) {
	pos := &Position{InstrumentID: 1}

	pos.ApplyFill(marketv1.SideBuy, 10000, 100)
	pos.ApplyFill(marketv1.SideSell, 10200, 150)

	assert.Equal(t, marketv1.Quantity(-50), pos.NetQty)
	assert.Equal(t, marketv1.Price(10200), pos.VWAP)
	// Only the closed 100 realize: (10200-10000)/100 * 100 = 200
	assert.InDelta(t, 200.0, pos.RealizedPnL, 1e-9)
}

// Test 6: Partial reduction keeps the entry VWAP
func TestPosition_ApplyFill_PartialReduce(t *testing.T) {
	pos := &Position{InstrumentID: 1}

	pos.ApplyFill(marketv1.SideBuy, 10000, 100)
	pos.ApplyFill(marketv1.SideSell, 10100, 40)

	assert.Equal(t, marketv1.Quantity(60), pos.NetQty)
	assert.Equal(t, marketv1.Price(10000), pos.VWAP)
	assert.InDelta(t, 40.0, pos.RealizedPnL, 1e-9)
}

// Test 7: Unrealized P&L follows the mark through signed quantity
func TestPosition_UnrealizedAt(t *testing.T) {
	long := &Position{InstrumentID: 1}
	long.ApplyFill(marketv1.SideBuy, 10000, 100)
	assert.InDelta(t, 500.0, long.UnrealizedAt(10500), 1e-9)

	short := &Position{InstrumentID: 1}
	short.ApplyFill(marketv1.SideSell, 10000, 100)
	assert.InDelta(t, -500.0, short.UnrealizedAt(10500), 1e-9)

	// No mark means no valuation.
	assert.Equal(t, 0.0, long.UnrealizedAt(0))
}

// Test 8: Settlement flattens the position against the payoff
func TestPosition_Settle(t *testing.T) {
	pos := &Position{InstrumentID: 2}
	pos.ApplyFill(marketv1.SideBuy, 500, 10)

	// Payoff per unit $20, entry cost per unit $5.
	pos.Settle(20.0, 1.0)

	assert.Equal(t, marketv1.Quantity(0), pos.NetQty)
	assert.Equal(t, marketv1.Price(0), pos.VWAP)
	assert.InDelta(t, 150.0, pos.RealizedPnL, 1e-9)

	// Settling a flat position is a no-op.
	pos.Settle(20.0, 1.0)
	assert.InDelta(t, 150.0, pos.RealizedPnL, 1e-9)
}
