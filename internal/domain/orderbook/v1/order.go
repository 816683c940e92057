package orderbookv1

import (
	"time"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// Order represents a single order in the order book.
type Order struct {
	ID           marketv1.OrderID      `json:"id"`
	UserID       marketv1.UserID       `json:"userID"`
	InstrumentID marketv1.InstrumentID `json:"instrumentID"`
	Side         marketv1.Side         `json:"side"`
	Price        marketv1.Price        `json:"price"`
	Quantity     marketv1.Quantity     `json:"quantity"`
	Filled       marketv1.Quantity     `json:"filled"`
	TIF          marketv1.TimeInForce  `json:"tif"`
	PostOnly     bool                  `json:"postOnly"`
	Status       marketv1.OrderStatus  `json:"status"`

	// Sequence establishes FIFO priority within a price level.
	Sequence int64 `json:"sequence"`
	// Timestamp is display-only; priority is governed by Sequence.
	Timestamp time.Time `json:"timestamp"`
}

// OrderRequest represents a client request to submit an order.
type OrderRequest struct {
	UserID       marketv1.UserID       `json:"userID"`
	InstrumentID marketv1.InstrumentID `json:"instrumentID"`
	Side         marketv1.Side         `json:"side"`
	Price        marketv1.Price        `json:"price"`
	Quantity     marketv1.Quantity     `json:"quantity"`
	TIF          marketv1.TimeInForce  `json:"tif"`
	PostOnly     bool                  `json:"postOnly"`
}

// NewOrder creates an order record for an accepted request.
func NewOrder(id marketv1.OrderID, seq int64, req OrderRequest) *Order {
	return &Order{
		ID:           id,
		UserID:       req.UserID,
		InstrumentID: req.InstrumentID,
		Side:         req.Side,
		Price:        req.Price,
		Quantity:     req.Quantity,
		TIF:          req.TIF,
		PostOnly:     req.PostOnly,
		Status:       marketv1.OrderStatusPending,
		Sequence:     seq,
		Timestamp:    time.Now(),
	}
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() marketv1.Quantity {
	return o.Quantity - o.Filled
}

// IsBid checks if the order is a bid (buy) order.
func (o *Order) IsBid() bool {
	return o.Side == marketv1.SideBuy
}

// IsAsk checks if the order is an ask (sell) order.
func (o *Order) IsAsk() bool {
	return o.Side == marketv1.SideSell
}

// IsLive reports whether the order is still resting on a book.
func (o *Order) IsLive() bool {
	return o.Status == marketv1.OrderStatusPending || o.Status == marketv1.OrderStatusPartial
}
