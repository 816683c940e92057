package orderbook

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
	"time"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	orderbookv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/orderbook/v1"
)

// Orderbook holds one instrument's resting orders.
//
// Price levels live in maps keyed by price; the heaps track the best price
// per side so insertion and removal of a level cost O(log L) and the best
// level is an O(1) peek. The by-id index supports cancel without scanning
// levels. Each book is an independent serial domain.
type Orderbook struct {
	mu sync.RWMutex

	instrumentID marketv1.InstrumentID

	bidLimits map[marketv1.Price]*orderbookv1.Limit
	askLimits map[marketv1.Price]*orderbookv1.Limit

	bidHeap *maxPriceHeap
	askHeap *minPriceHeap

	orders map[marketv1.OrderID]*orderbookv1.Order

	lastPrice marketv1.Price
}

// NewOrderbook creates an empty book for one instrument.
func NewOrderbook(instrumentID marketv1.InstrumentID) *Orderbook {
	return &Orderbook{
		instrumentID: instrumentID,
		bidLimits:    make(map[marketv1.Price]*orderbookv1.Limit),
		askLimits:    make(map[marketv1.Price]*orderbookv1.Limit),
		bidHeap:      newMaxPriceHeap(),
		askHeap:      newMinPriceHeap(),
		orders:       make(map[marketv1.OrderID]*orderbookv1.Order),
	}
}

// AddOrder matches the incoming order against the opposite side under
// price-time priority, then rests any residual if eligible.
//
// The order's status is final on return: FILLED, CANCELLED (IOC leftover),
// REJECTED (post-only would cross) or PENDING/PARTIAL when resting. Fills
// come out in pairs, the aggressor's immediately followed by the passive's.
func (ob *Orderbook) AddOrder(order *orderbookv1.Order) []orderbookv1.Fill {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	// Post-only orders either rest without crossing or reject outright,
	// before any passive-side state changes.
	if order.PostOnly && ob.crossesOpposite(order) {
		order.Status = marketv1.OrderStatusRejected
		return nil
	}

	fills := ob.match(order)

	switch {
	case order.Remaining() == 0:
		order.Status = marketv1.OrderStatusFilled
	case order.TIF == marketv1.TIFImmediateOrCancel:
		order.Status = marketv1.OrderStatusCancelled
	default:
		ob.rest(order)
		if order.Filled > 0 {
			order.Status = marketv1.OrderStatusPartial
		} else {
			order.Status = marketv1.OrderStatusPending
		}
	}

	return fills
}

// match sweeps the opposite side best to worst while the order crosses.
func (ob *Orderbook) match(order *orderbookv1.Order) []orderbookv1.Fill {
	var fills []orderbookv1.Fill

	for order.Remaining() > 0 {
		price, ok := ob.bestOpposite(order.Side)
		if !ok || !crosses(order, price) {
			break
		}

		limit := ob.oppositeLimits(order.Side)[price]
		passive := limit.Head()
		if passive == nil || passive.Remaining() <= 0 {
			// A dead head order means the book bookkeeping is broken.
			panic(fmt.Sprintf("orderbook %d: head of level %d has no remaining quantity", ob.instrumentID, price))
		}

		match := order.Remaining()
		if passive.Remaining() < match {
			match = passive.Remaining()
		}

		ts := time.Now()
		fills = append(fills,
			ob.createFill(order, price, match, ts),
			ob.createFill(passive, price, match, ts),
		)

		order.Filled += match
		passive.Filled += match
		limit.Reduce(match)
		ob.lastPrice = price

		if passive.Remaining() == 0 {
			passive.Status = marketv1.OrderStatusFilled
			limit.RemoveHead()
			delete(ob.orders, passive.ID)
		} else {
			passive.Status = marketv1.OrderStatusPartial
		}

		if limit.IsEmpty() {
			ob.removeLevel(order.Side.Opposite(), price)
		}
	}

	return fills
}

// Cancel removes a resting order. Returns false for unknown or dead ids.
func (ob *Orderbook) Cancel(orderID marketv1.OrderID) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, ok := ob.orders[orderID]
	if !ok {
		return false
	}

	limit := ob.sideLimits(order.Side)[order.Price]
	if limit == nil {
		return false
	}
	if err := limit.RemoveOrder(order); err != nil {
		return false
	}

	if limit.IsEmpty() {
		ob.removeLevel(order.Side, order.Price)
	}

	delete(ob.orders, orderID)
	order.Status = marketv1.OrderStatusCancelled
	return true
}

// Snapshot reports up to depth best levels per side with aggregate live size.
func (ob *Orderbook) Snapshot(depth int) orderbookv1.MarketSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	snapshot := orderbookv1.MarketSnapshot{
		InstrumentID: ob.instrumentID,
		LastPrice:    ob.lastPrice,
		Timestamp:    time.Now(),
	}

	for _, limit := range ob.sortedLimits(marketv1.SideBuy) {
		if len(snapshot.Bids) >= depth {
			break
		}
		if limit.LiveVolume > 0 {
			snapshot.Bids = append(snapshot.Bids, orderbookv1.PriceLevel{Price: limit.Price, Size: limit.LiveVolume})
		}
	}

	for _, limit := range ob.sortedLimits(marketv1.SideSell) {
		if len(snapshot.Asks) >= depth {
			break
		}
		if limit.LiveVolume > 0 {
			snapshot.Asks = append(snapshot.Asks, orderbookv1.PriceLevel{Price: limit.Price, Size: limit.LiveVolume})
		}
	}

	return snapshot
}

// BestBid returns the highest bid price.
func (ob *Orderbook) BestBid() (marketv1.Price, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if ob.bidHeap.Len() == 0 {
		return 0, false
	}
	return ob.bidHeap.Peek(), true
}

// BestAsk returns the lowest ask price.
func (ob *Orderbook) BestAsk() (marketv1.Price, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	if ob.askHeap.Len() == 0 {
		return 0, false
	}
	return ob.askHeap.Peek(), true
}

// LastPrice returns the price of the most recent fill, zero before any trade.
func (ob *Orderbook) LastPrice() marketv1.Price {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.lastPrice
}

// MidPrice returns the average of best bid and best ask, zero when one-sided.
func (ob *Orderbook) MidPrice() marketv1.Price {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	if ob.bidHeap.Len() == 0 || ob.askHeap.Len() == 0 {
		return 0
	}
	return (ob.bidHeap.Peek() + ob.askHeap.Peek()) / 2
}

// Volume returns the total live quantity resting on one side.
func (ob *Orderbook) Volume(side marketv1.Side) marketv1.Quantity {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	var total marketv1.Quantity
	for _, limit := range ob.sideLimits(side) {
		total += limit.LiveVolume
	}
	return total
}

// OrderCount returns the number of resting orders.
func (ob *Orderbook) OrderCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return len(ob.orders)
}

// rest parks the order at the tail of its price level.
func (ob *Orderbook) rest(order *orderbookv1.Order) {
	limits := ob.sideLimits(order.Side)

	limit, exists := limits[order.Price]
	if !exists {
		limit = orderbookv1.NewLimit(order.Price)
		limits[order.Price] = limit
		if order.IsBid() {
			heap.Push(ob.bidHeap, order.Price)
		} else {
			heap.Push(ob.askHeap, order.Price)
		}
	}

	// AddOrder only fails for dead orders, which cannot reach here.
	_ = limit.AddOrder(order)
	ob.orders[order.ID] = order
}

// removeLevel drops an empty price level and its heap entry.
func (ob *Orderbook) removeLevel(side marketv1.Side, price marketv1.Price) {
	delete(ob.sideLimits(side), price)

	if side == marketv1.SideBuy {
		ob.bidHeap.Remove(price)
	} else {
		ob.askHeap.Remove(price)
	}
}

// bestOpposite peeks the best price on the side the order would trade against.
func (ob *Orderbook) bestOpposite(side marketv1.Side) (marketv1.Price, bool) {
	if side == marketv1.SideBuy {
		if ob.askHeap.Len() == 0 {
			return 0, false
		}
		return ob.askHeap.Peek(), true
	}
	if ob.bidHeap.Len() == 0 {
		return 0, false
	}
	return ob.bidHeap.Peek(), true
}

// crossesOpposite reports whether the order would trade at its limit price.
func (ob *Orderbook) crossesOpposite(order *orderbookv1.Order) bool {
	price, ok := ob.bestOpposite(order.Side)
	return ok && crosses(order, price)
}

func crosses(order *orderbookv1.Order, opposite marketv1.Price) bool {
	if order.IsBid() {
		return order.Price >= opposite
	}
	return order.Price <= opposite
}

func (ob *Orderbook) sideLimits(side marketv1.Side) map[marketv1.Price]*orderbookv1.Limit {
	if side == marketv1.SideBuy {
		return ob.bidLimits
	}
	return ob.askLimits
}

func (ob *Orderbook) oppositeLimits(side marketv1.Side) map[marketv1.Price]*orderbookv1.Limit {
	return ob.sideLimits(side.Opposite())
}

// sortedLimits returns one side's levels best-first.
func (ob *Orderbook) sortedLimits(side marketv1.Side) orderbookv1.Limits {
	var limits orderbookv1.Limits
	for _, limit := range ob.sideLimits(side) {
		limits = append(limits, limit)
	}

	if side == marketv1.SideBuy {
		sort.Sort(orderbookv1.ByBestBid{Limits: limits})
	} else {
		sort.Sort(orderbookv1.ByBestAsk{Limits: limits})
	}
	return limits
}

func (ob *Orderbook) createFill(order *orderbookv1.Order, price marketv1.Price, qty marketv1.Quantity, ts time.Time) orderbookv1.Fill {
	return orderbookv1.Fill{
		OrderID:      order.ID,
		UserID:       order.UserID,
		InstrumentID: ob.instrumentID,
		Side:         order.Side,
		Price:        price,
		Quantity:     qty,
		Timestamp:    ts,
	}
}
