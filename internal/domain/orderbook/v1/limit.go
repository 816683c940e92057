package orderbookv1

import (
	"errors"
	"fmt"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

var (
	// ErrNilOrder is returned when a nil order is handed to a limit.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidSize is returned when an order has no remaining size.
	ErrInvalidSize = errors.New("order remaining size must be positive")
	// ErrOrderNotFound is returned when removing an order the limit does not hold.
	ErrOrderNotFound = errors.New("order not found in limit")
)

// Limit represents a price level in the order book with associated orders.
//
// Orders are appended at the tail on entry and consumed from the head on
// full fill; the slice is always in ascending Sequence order. LiveVolume
// tracks the sum of remaining quantity over all orders at this level.
type Limit struct {
	Price      marketv1.Price    `json:"price"`
	Orders     []*Order          `json:"orders"`
	LiveVolume marketv1.Quantity `json:"liveVolume"`
}

// NewLimit creates a new Limit with the specified price.
func NewLimit(price marketv1.Price) *Limit {
	return &Limit{
		Price:  price,
		Orders: make([]*Order, 0),
	}
}

// AddOrder appends an order at the tail of the limit and updates live volume.
func (l *Limit) AddOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Remaining() <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, order.Remaining())
	}

	l.Orders = append(l.Orders, order)
	l.LiveVolume += order.Remaining()

	return nil
}

// RemoveOrder removes an order from anywhere in the limit without reordering
// the rest, and updates live volume.
func (l *Limit) RemoveOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}

	for i, o := range l.Orders {
		if o == order {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.LiveVolume -= order.Remaining()
			return nil
		}
	}

	return ErrOrderNotFound
}

// Head returns the oldest surviving order at this level, nil when empty.
func (l *Limit) Head() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// RemoveHead pops the head order.
func (l *Limit) RemoveHead() {
	if len(l.Orders) == 0 {
		return
	}
	l.Orders = l.Orders[1:]
}

// Reduce subtracts matched quantity from the live volume.
func (l *Limit) Reduce(qty marketv1.Quantity) {
	l.LiveVolume -= qty
}

// IsEmpty checks if the limit has no orders.
func (l *Limit) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of orders at this limit.
func (l *Limit) OrderCount() int {
	return len(l.Orders)
}

// GetOrders returns a copy of the orders slice.
func (l *Limit) GetOrders() []*Order {
	orders := make([]*Order, len(l.Orders))
	copy(orders, l.Orders)
	return orders
}

// Validate performs basic validation of the limit's state. A head order with
// no remaining quantity indicates a matching bug and is reported as an error.
func (l *Limit) Validate() error {
	var calculated marketv1.Quantity
	for _, order := range l.Orders {
		if order == nil {
			return fmt.Errorf("nil order found in limit %d", l.Price)
		}
		if order.Remaining() <= 0 {
			return fmt.Errorf("%w: order %d has remaining %d", ErrInvalidSize, order.ID, order.Remaining())
		}
		calculated += order.Remaining()
	}

	if calculated != l.LiveVolume {
		return fmt.Errorf("volume mismatch at %d: calculated %d, stored %d", l.Price, calculated, l.LiveVolume)
	}

	return nil
}
