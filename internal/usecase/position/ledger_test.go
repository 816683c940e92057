package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	orderbookv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/orderbook/v1"
)

func fill(userID marketv1.UserID, instrumentID marketv1.InstrumentID, side marketv1.Side, price marketv1.Price, qty marketv1.Quantity) orderbookv1.Fill {
	return orderbookv1.Fill{
		UserID:       userID,
		InstrumentID: instrumentID,
		Side:         side,
		Price:        price,
		Quantity:     qty,
	}
}

func flatMark(marketv1.InstrumentID) marketv1.Price { return 0 }

// Test 1: Applying fills builds per-user per-instrument positions
func TestLedger_Apply(t *testing.T) {
	ledger := NewLedger()

	ledger.Apply(fill(1, 1, marketv1.SideBuy, 10000, 100))
	ledger.Apply(fill(1, 2, marketv1.SideSell, 500, 10))
	ledger.Apply(fill(2, 1, marketv1.SideSell, 10000, 100))

	assert.Equal(t, marketv1.Quantity(100), ledger.NetQty(1, 1))
	assert.Equal(t, marketv1.Quantity(-10), ledger.NetQty(1, 2))
	assert.Equal(t, marketv1.Quantity(-100), ledger.NetQty(2, 1))
	assert.Equal(t, marketv1.Quantity(0), ledger.NetQty(3, 1))
}

// Test 2: Enumeration skips flat positions and values open ones
func TestLedger_Positions(t *testing.T) {
	ledger := NewLedger()

	ledger.Apply(fill(1, 1, marketv1.SideBuy, 10000, 100))
	ledger.Apply(fill(1, 2, marketv1.SideBuy, 500, 10))
	ledger.Apply(fill(1, 2, marketv1.SideSell, 600, 10)) // closes instrument 2

	positions := ledger.Positions(1, func(marketv1.InstrumentID) marketv1.Price { return 10500 })
	require.Len(t, positions, 1)
	assert.Equal(t, marketv1.InstrumentID(1), positions[0].InstrumentID)
	assert.InDelta(t, 500.0, positions[0].UnrealizedPnL, 1e-9)

	assert.Empty(t, ledger.Positions(9, flatMark))
}

// Test 3: Total P&L includes realized P&L of closed positions
func TestLedger_TotalPnL(t *testing.T) {
	ledger := NewLedger()

	ledger.Apply(fill(1, 1, marketv1.SideBuy, 10000, 100))
	ledger.Apply(fill(1, 1, marketv1.SideSell, 10500, 100))
	ledger.Apply(fill(1, 2, marketv1.SideBuy, 500, 10))

	marks := map[marketv1.InstrumentID]marketv1.Price{2: 700}
	total := ledger.TotalPnL(1, func(id marketv1.InstrumentID) marketv1.Price { return marks[id] })

	// 500 realized on instrument 1, (700-500)/100*10 = 20 unrealized on 2.
	assert.InDelta(t, 520.0, total, 1e-9)

	assert.Equal(t, 0.0, ledger.TotalPnL(9, flatMark))
}

// Test 4: Settle flattens every holder of the instrument
func TestLedger_Settle(t *testing.T) {
	ledger := NewLedger()

	ledger.Apply(fill(1, 1, marketv1.SideBuy, 10000, 100))
	ledger.Apply(fill(2, 1, marketv1.SideSell, 10000, 100))
	ledger.Apply(fill(1, 2, marketv1.SideBuy, 500, 10))

	ledger.Settle(1, 110.0, 1.0)

	assert.Equal(t, marketv1.Quantity(0), ledger.NetQty(1, 1))
	assert.Equal(t, marketv1.Quantity(0), ledger.NetQty(2, 1))

	// Zero-sum across the two holders.
	total := ledger.TotalPnL(1, flatMark) + ledger.TotalPnL(2, flatMark)
	assert.InDelta(t, 0.0, total, 1e-9)

	// The unrelated instrument is untouched.
	assert.Equal(t, marketv1.Quantity(10), ledger.NetQty(1, 2))
}
