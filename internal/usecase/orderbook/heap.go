package orderbook

import (
	"container/heap"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// maxPriceHeap implements heap.Interface for bid prices (highest price on
// top). index tracks each price's current slot, kept in sync by Swap, so a
// level can be removed in O(log L) without scanning the heap.
type maxPriceHeap struct {
	prices []marketv1.Price
	index  map[marketv1.Price]int
}

func newMaxPriceHeap() *maxPriceHeap {
	return &maxPriceHeap{index: make(map[marketv1.Price]int)}
}

func (h *maxPriceHeap) Len() int           { return len(h.prices) }
func (h *maxPriceHeap) Less(i, j int) bool { return h.prices[i] > h.prices[j] }

func (h *maxPriceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.index[h.prices[i]] = i
	h.index[h.prices[j]] = j
}

func (h *maxPriceHeap) Push(x interface{}) {
	price := x.(marketv1.Price)
	h.index[price] = len(h.prices)
	h.prices = append(h.prices, price)
}

func (h *maxPriceHeap) Pop() interface{} {
	old := h.prices
	n := len(old)
	price := old[n-1]
	h.prices = old[0 : n-1]
	delete(h.index, price)
	return price
}

// Peek returns the top element without removing it.
func (h *maxPriceHeap) Peek() marketv1.Price {
	if len(h.prices) == 0 {
		return 0
	}
	return h.prices[0]
}

// Remove drops a price from the heap via its tracked slot.
func (h *maxPriceHeap) Remove(price marketv1.Price) {
	if i, ok := h.index[price]; ok {
		heap.Remove(h, i)
	}
}

// minPriceHeap implements heap.Interface for ask prices (lowest price on
// top), with the same slot index as maxPriceHeap.
type minPriceHeap struct {
	prices []marketv1.Price
	index  map[marketv1.Price]int
}

func newMinPriceHeap() *minPriceHeap {
	return &minPriceHeap{index: make(map[marketv1.Price]int)}
}

func (h *minPriceHeap) Len() int           { return len(h.prices) }
func (h *minPriceHeap) Less(i, j int) bool { return h.prices[i] < h.prices[j] }

func (h *minPriceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.index[h.prices[i]] = i
	h.index[h.prices[j]] = j
}

func (h *minPriceHeap) Push(x interface{}) {
	price := x.(marketv1.Price)
	h.index[price] = len(h.prices)
	h.prices = append(h.prices, price)
}

func (h *minPriceHeap) Pop() interface{} {
	old := h.prices
	n := len(old)
	price := old[n-1]
	h.prices = old[0 : n-1]
	delete(h.index, price)
	return price
}

// Peek returns the top element without removing it.
func (h *minPriceHeap) Peek() marketv1.Price {
	if len(h.prices) == 0 {
		return 0
	}
	return h.prices[0]
}

// Remove drops a price from the heap via its tracked slot.
func (h *minPriceHeap) Remove(price marketv1.Price) {
	if i, ok := h.index[price]; ok {
		heap.Remove(h, i)
	}
}
