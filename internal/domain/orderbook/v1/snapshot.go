package orderbookv1

import (
	"time"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// PriceLevel reports the aggregate live size resting at one price.
type PriceLevel struct {
	Price marketv1.Price    `json:"price"`
	Size  marketv1.Quantity `json:"size"`
}

// MarketSnapshot reports the best levels of a book, bids descending and asks
// ascending, with the most recent trade price if any.
type MarketSnapshot struct {
	InstrumentID marketv1.InstrumentID `json:"instrumentID"`
	Bids         []PriceLevel          `json:"bids"`
	Asks         []PriceLevel          `json:"asks"`
	LastPrice    marketv1.Price        `json:"lastPrice"`
	Timestamp    time.Time             `json:"timestamp"`
}
