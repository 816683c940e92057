package engine

import (
	"errors"

	instrumentv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/instrument/v1"
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	orderbookv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/orderbook/v1"
	"github.com/nehadyounis/themarketmakinggame/pkg/logger"
)

// OrderResult reports the outcome of a submission. Fills come in pairs, the
// aggressor's immediately followed by the passive's.
type OrderResult struct {
	OrderID      marketv1.OrderID     `json:"orderID"`
	Success      bool                 `json:"success"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
	Status       marketv1.OrderStatus `json:"status"`
	Fills        []orderbookv1.Fill   `json:"fills"`
}

// SubmitOrder runs the submission pipeline: validation, risk gate, id
// allocation, matching, position updates, histories.
func (e *Engine) SubmitOrder(req orderbookv1.OrderRequest) OrderResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitLocked(req)
}

func (e *Engine) submitLocked(req orderbookv1.OrderRequest) OrderResult {
	inst, ok := e.instruments[req.InstrumentID]
	if !ok {
		return e.rejectLocked(MsgInstrumentNotFound)
	}
	if inst.IsHalted {
		return e.rejectLocked(MsgInstrumentHalted)
	}

	if err := inst.ValidateOrder(req.Price, req.Quantity); err != nil {
		if errors.Is(err, instrumentv1.ErrInvalidPrice) {
			return e.rejectLocked(MsgInvalidPrice)
		}
		return e.rejectLocked(MsgInvalidQuantity)
	}

	if !e.checkRiskLocked(req.UserID, req.InstrumentID, req.Side, req.Quantity) {
		return e.rejectLocked(MsgRiskLimitExceeded)
	}

	order := orderbookv1.NewOrder(e.ids.NextOrderID(), e.ids.NextSequence(), req)
	fills := e.books[req.InstrumentID].AddOrder(order)

	if order.Status == marketv1.OrderStatusRejected {
		// Post-only would have crossed; the book produced no fills.
		e.stats.TotalRejects++
	}

	for i := 0; i+1 < len(fills); i += 2 {
		aggressor, passive := fills[i], fills[i+1]

		e.ledger.Apply(aggressor)
		e.ledger.Apply(passive)
		e.fillHistory = append(e.fillHistory, aggressor, passive)
		e.stats.TotalFills += 2

		// A passive order filled in full has left the book.
		if resting, ok := e.activeOrders[passive.OrderID]; ok && !resting.IsLive() {
			e.forgetOrder(resting.ID, resting.UserID)
		}

		trade := orderbookv1.TradeFromPair(aggressor, passive)
		e.tradeHistory = append(e.tradeHistory, trade)

		e.logger.Debug("Trade executed",
			logger.Field{Key: "instrumentID", Value: trade.InstrumentID},
			logger.Field{Key: "price", Value: trade.Price},
			logger.Field{Key: "quantity", Value: trade.Quantity},
			logger.Field{Key: "buyerID", Value: trade.BuyerID},
			logger.Field{Key: "sellerID", Value: trade.SellerID},
		)
	}

	if order.IsLive() {
		e.activeOrders[order.ID] = order
		byUser, ok := e.userOrders[order.UserID]
		if !ok {
			byUser = make(map[marketv1.OrderID]struct{})
			e.userOrders[order.UserID] = byUser
		}
		byUser[order.ID] = struct{}{}
	}

	e.stats.TotalOrders++
	return OrderResult{
		OrderID: order.ID,
		Success: true,
		Status:  order.Status,
		Fills:   fills,
	}
}

func (e *Engine) rejectLocked(message string) OrderResult {
	e.stats.TotalRejects++
	return OrderResult{
		Success:      false,
		ErrorMessage: message,
		Status:       marketv1.OrderStatusRejected,
	}
}

// CancelOrder removes a live order owned by the given user.
func (e *Engine) CancelOrder(orderID marketv1.OrderID, userID marketv1.UserID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.activeOrders[orderID]
	if !ok {
		return false
	}
	if order.UserID != userID {
		return false
	}

	return e.cancelLocked(order)
}

func (e *Engine) cancelLocked(order *orderbookv1.Order) bool {
	if !e.books[order.InstrumentID].Cancel(order.ID) {
		return false
	}

	e.forgetOrder(order.ID, order.UserID)
	e.stats.TotalCancels++
	return true
}

// ReplaceOrder cancels the order and submits a fresh one carrying the new
// price and quantity, defaulting to the old price and the old remaining
// quantity. The new order goes to the tail of its level; losing time
// priority is the point of the operation.
func (e *Engine) ReplaceOrder(orderID marketv1.OrderID, userID marketv1.UserID, newPrice *marketv1.Price, newQty *marketv1.Quantity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.activeOrders[orderID]
	if !ok {
		return false
	}
	if order.UserID != userID {
		return false
	}

	req := orderbookv1.OrderRequest{
		UserID:       userID,
		InstrumentID: order.InstrumentID,
		Side:         order.Side,
		Price:        order.Price,
		Quantity:     order.Remaining(),
		TIF:          order.TIF,
		PostOnly:     order.PostOnly,
	}
	if newPrice != nil {
		req.Price = *newPrice
	}
	if newQty != nil {
		req.Quantity = *newQty
	}

	if !e.cancelLocked(order) {
		return false
	}

	return e.submitLocked(req).Success
}

// CancelAll cancels every live order the user has, across all instruments.
func (e *Engine) CancelAll(userID marketv1.UserID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	byUser, ok := e.userOrders[userID]
	if !ok {
		return true
	}

	// Snapshot the ids; cancelLocked mutates the set.
	orderIDs := make([]marketv1.OrderID, 0, len(byUser))
	for orderID := range byUser {
		orderIDs = append(orderIDs, orderID)
	}

	for _, orderID := range orderIDs {
		if order, ok := e.activeOrders[orderID]; ok {
			e.cancelLocked(order)
		}
	}

	e.logger.Info("Cancelled all user orders",
		logger.Field{Key: "userID", Value: userID},
		logger.Field{Key: "count", Value: len(orderIDs)},
	)
	return true
}

// forgetOrder drops an order from the active and per-user indices.
func (e *Engine) forgetOrder(orderID marketv1.OrderID, userID marketv1.UserID) {
	delete(e.activeOrders, orderID)
	if byUser, ok := e.userOrders[userID]; ok {
		delete(byUser, orderID)
		if len(byUser) == 0 {
			delete(e.userOrders, userID)
		}
	}
}
