package orderbookv1

import (
	"time"

	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
)

// Fill represents one side's share of a matched trade.
//
// Fills are emitted in pairs: the aggressor's fill immediately followed by
// the passive's, both carrying the same price, quantity and timestamp.
type Fill struct {
	OrderID      marketv1.OrderID      `json:"orderID"`
	UserID       marketv1.UserID       `json:"userID"`
	InstrumentID marketv1.InstrumentID `json:"instrumentID"`
	Side         marketv1.Side         `json:"side"`
	Price        marketv1.Price        `json:"price"`
	Quantity     marketv1.Quantity     `json:"quantity"`
	Timestamp    time.Time             `json:"timestamp"`
}

// TradeRecord represents a matched pair as a single trade.
type TradeRecord struct {
	BuyOrderID   marketv1.OrderID      `json:"buyOrderID"`
	SellOrderID  marketv1.OrderID      `json:"sellOrderID"`
	BuyerID      marketv1.UserID       `json:"buyerID"`
	SellerID     marketv1.UserID       `json:"sellerID"`
	InstrumentID marketv1.InstrumentID `json:"instrumentID"`
	Price        marketv1.Price        `json:"price"`
	Quantity     marketv1.Quantity     `json:"quantity"`
	Timestamp    time.Time             `json:"timestamp"`
}

// TradeFromPair builds a TradeRecord out of an aggressor/passive fill pair.
func TradeFromPair(aggressor, passive Fill) TradeRecord {
	trade := TradeRecord{
		InstrumentID: aggressor.InstrumentID,
		Price:        aggressor.Price,
		Quantity:     aggressor.Quantity,
		Timestamp:    aggressor.Timestamp,
	}

	if aggressor.Side == marketv1.SideBuy {
		trade.BuyOrderID = aggressor.OrderID
		trade.BuyerID = aggressor.UserID
		trade.SellOrderID = passive.OrderID
		trade.SellerID = passive.UserID
	} else {
		trade.SellOrderID = aggressor.OrderID
		trade.SellerID = aggressor.UserID
		trade.BuyOrderID = passive.OrderID
		trade.BuyerID = passive.UserID
	}

	return trade
}
