package orderbookv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// Helper function to create a resting test order
func createTestOrder(id marketv1.OrderID, seq int64, qty marketv1.Quantity) *Order {
	return NewOrder(id, seq, OrderRequest{
		UserID:       1,
		InstrumentID: 1,
		Side:         marketv1.SideBuy,
		Price:        10000,
		Quantity:     qty,
	})
}

// Test 1: Basic constructor
func TestNewLimit(t *testing.T) {
	limit := NewLimit(10000)

	assert.NotNil(t, limit)
	assert.Equal(t, marketv1.Price(10000), limit.Price)
	assert.Equal(t, 0, limit.OrderCount())
	assert.Equal(t, marketv1.Quantity(0), limit.LiveVolume)
}

// Test 2: Adding orders accumulates live volume in FIFO order
func TestLimit_AddOrder(t *testing.T) {
	limit := NewLimit(10000)

	order1 := createTestOrder(1, 1, 10)
	order2 := createTestOrder(2, 2, 5)

	require.NoError(t, limit.AddOrder(order1))
	require.NoError(t, limit.AddOrder(order2))

	assert.Equal(t, 2, limit.OrderCount())
	assert.Equal(t, marketv1.Quantity(15), limit.LiveVolume)
	assert.Equal(t, order1, limit.Head())
}

// Test 3: Nil and dead orders are refused
func TestLimit_AddOrder_Invalid(t *testing.T) {
	limit := NewLimit(10000)

	assert.ErrorIs(t, limit.AddOrder(nil), ErrNilOrder)

	dead := createTestOrder(1, 1, 10)
	dead.Filled = dead.Quantity
	assert.ErrorIs(t, limit.AddOrder(dead), ErrInvalidSize)
}

// Test 4: Removing from the middle keeps FIFO order of the rest
func TestLimit_RemoveOrder_Middle(t *testing.T) {
	limit := NewLimit(10000)

	order1 := createTestOrder(1, 1, 10)
	order2 := createTestOrder(2, 2, 5)
	order3 := createTestOrder(3, 3, 7)

	require.NoError(t, limit.AddOrder(order1))
	require.NoError(t, limit.AddOrder(order2))
	require.NoError(t, limit.AddOrder(order3))

	require.NoError(t, limit.RemoveOrder(order2))

	assert.Equal(t, 2, limit.OrderCount())
	assert.Equal(t, marketv1.Quantity(17), limit.LiveVolume)
	assert.Equal(t, order1, limit.Head())
	assert.Equal(t, []*Order{order1, order3}, limit.GetOrders())

	assert.ErrorIs(t, limit.RemoveOrder(order2), ErrOrderNotFound)
}

// Test 5: RemoveHead pops the oldest order
func TestLimit_RemoveHead(t *testing.T) {
	limit := NewLimit(10000)

	order1 := createTestOrder(1, 1, 10)
	order2 := createTestOrder(2, 2, 5)

	require.NoError(t, limit.AddOrder(order1))
	require.NoError(t, limit.AddOrder(order2))

	limit.RemoveHead()
	assert.Equal(t, order2, limit.Head())

	limit.RemoveHead()
	assert.True(t, limit.IsEmpty())
	assert.Nil(t, limit.Head())
}

// Test 6: Validate tracks partial fills and catches volume drift
func TestLimit_Validate(t *testing.T) {
	limit := NewLimit(10000)

	order := createTestOrder(1, 1, 10)
	require.NoError(t, limit.AddOrder(order))
	require.NoError(t, limit.Validate())

	// Partially fill through the book path: volume must be reduced in step.
	order.Filled = 4
	limit.Reduce(4)
	require.NoError(t, limit.Validate())

	// Drift the stored volume.
	limit.Reduce(1)
	assert.Error(t, limit.Validate())
}
