package engine

import (
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	instrumentv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/instrument/v1"
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	orderbookv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/orderbook/v1"
	positionv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/position/v1"
	riskv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/risk/v1"
	"github.com/nehadyounis/themarketmakinggame/internal/usecase/orderbook"
	"github.com/nehadyounis/themarketmakinggame/internal/usecase/position"
	"github.com/nehadyounis/themarketmakinggame/pkg/logger"
)

// Stable client-facing error messages. The gateway surfaces these verbatim.
const (
	MsgInstrumentNotFound = "Instrument not found"
	MsgInstrumentHalted   = "Instrument is halted"
	MsgRiskLimitExceeded  = "Risk limit exceeded"
	MsgInvalidQuantity    = "Invalid quantity"
	MsgInvalidPrice       = "Invalid price"
	MsgOrderNotFound      = "Order not found"
	MsgNotOrderOwner      = "Not the order owner"
)

// Stats is the engine's monotonic counter block.
type Stats struct {
	TotalOrders  uint64 `json:"totalOrders"`
	TotalFills   uint64 `json:"totalFills"`
	TotalCancels uint64 `json:"totalCancels"`
	TotalRejects uint64 `json:"totalRejects"`
}

// Engine is the session façade: instrument registry, order routing, risk
// gate, position ledger, settlement, histories and statistics.
//
// Every public operation runs to completion under one lock; there is no
// re-entrant entry point and no suspension inside a mutation.
type Engine struct {
	mu sync.Mutex

	logger    *logger.Logger
	options   *Options
	sessionID string

	ids *marketv1.IDGenerator

	instruments map[marketv1.InstrumentID]*instrumentv1.Spec
	books       map[marketv1.InstrumentID]*orderbook.Orderbook

	ledger     *position.Ledger
	riskLimits map[marketv1.UserID]riskv1.Limits

	activeOrders map[marketv1.OrderID]*orderbookv1.Order
	userOrders   map[marketv1.UserID]map[marketv1.OrderID]struct{}

	tradeHistory []orderbookv1.TradeRecord
	fillHistory  []orderbookv1.Fill

	stats Stats
}

// NewEngine creates an engine with default options.
func NewEngine(log *logger.Logger) *Engine {
	return NewEngineWithOptions(log, DefaultEngineOptions())
}

// NewEngineWithOptions creates an engine with custom options.
func NewEngineWithOptions(log *logger.Logger, options *Options) *Engine {
	e := &Engine{
		logger:       log,
		options:      options,
		sessionID:    ulid.Make().String(),
		ids:          marketv1.NewIDGenerator(),
		instruments:  make(map[marketv1.InstrumentID]*instrumentv1.Spec),
		books:        make(map[marketv1.InstrumentID]*orderbook.Orderbook),
		ledger:       position.NewLedger(),
		riskLimits:   make(map[marketv1.UserID]riskv1.Limits),
		activeOrders: make(map[marketv1.OrderID]*orderbookv1.Order),
		userOrders:   make(map[marketv1.UserID]map[marketv1.OrderID]struct{}),
	}

	e.logger.Info("Engine session started", logger.Field{
		Key:   "sessionID",
		Value: e.sessionID,
	})

	return e
}

// SessionID returns the session's ULID, used for log correlation only.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// AddInstrument registers a new instrument. A duplicate id is refused
// without mutation, as is an option whose reference is not a known scalar.
func (e *Engine) AddInstrument(spec instrumentv1.Spec) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := spec.Validate(); err != nil {
		e.logger.Warn("Rejected instrument", logger.Field{Key: "reason", Value: err.Error()})
		return false
	}

	if _, exists := e.instruments[spec.ID]; exists {
		return false
	}

	if spec.Kind.IsOption() {
		ref, ok := e.instruments[spec.ReferenceID]
		if !ok || ref.Kind != instrumentv1.KindScalar {
			e.logger.Warn("Rejected instrument",
				logger.Field{Key: "symbol", Value: spec.Symbol},
				logger.Field{Key: "reason", Value: "reference is not a known scalar"},
			)
			return false
		}
	}

	e.instruments[spec.ID] = &spec
	e.books[spec.ID] = orderbook.NewOrderbook(spec.ID)

	e.logger.Info("Instrument added",
		logger.Field{Key: "instrumentID", Value: spec.ID},
		logger.Field{Key: "symbol", Value: spec.Symbol},
		logger.Field{Key: "kind", Value: spec.Kind.String()},
	)
	return true
}

// HaltInstrument toggles the halt flag. A halted instrument accepts no new
// orders but keeps its book and resting orders.
func (e *Engine) HaltInstrument(id marketv1.InstrumentID, halted bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instruments[id]
	if !ok {
		return false
	}

	inst.IsHalted = halted
	e.logger.Info("Instrument halt toggled",
		logger.Field{Key: "instrumentID", Value: id},
		logger.Field{Key: "halted", Value: halted},
	)
	return true
}

// GetInstrument returns a copy of the instrument spec.
func (e *Engine) GetInstrument(id marketv1.InstrumentID) (instrumentv1.Spec, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instruments[id]
	if !ok {
		return instrumentv1.Spec{}, false
	}
	return *inst, true
}

// SettleInstrument converts every open position in the instrument into
// realized cash against the declared settlement value, flushes resting
// orders and halts the instrument.
func (e *Engine) SettleInstrument(id marketv1.InstrumentID, settlement marketv1.Price) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instruments[id]
	if !ok {
		return false
	}

	// Flush resting orders so nothing dangles against a halted book.
	book := e.books[id]
	for orderID, order := range e.activeOrders {
		if order.InstrumentID != id {
			continue
		}
		book.Cancel(orderID)
		e.forgetOrder(orderID, order.UserID)
	}

	e.ledger.Settle(id, inst.PayoffPerUnit(settlement), inst.TickValue)
	inst.IsHalted = true

	e.logger.Info("Instrument settled",
		logger.Field{Key: "instrumentID", Value: id},
		logger.Field{Key: "symbol", Value: inst.Symbol},
		logger.Field{Key: "settlement", Value: settlement},
	)
	return true
}

// SetRiskLimits stores a user's risk limits.
func (e *Engine) SetRiskLimits(userID marketv1.UserID, limits riskv1.Limits) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.riskLimits[userID] = limits
}

// CheckRisk reports whether a submission would pass the user's risk gate.
// Users without limits always pass.
func (e *Engine) CheckRisk(userID marketv1.UserID, instrumentID marketv1.InstrumentID, side marketv1.Side, qty marketv1.Quantity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkRiskLocked(userID, instrumentID, side, qty)
}

func (e *Engine) checkRiskLocked(userID marketv1.UserID, instrumentID marketv1.InstrumentID, side marketv1.Side, qty marketv1.Quantity) bool {
	limits, ok := e.riskLimits[userID]
	if !ok {
		return true
	}
	return limits.Allows(e.ledger.NetQty(userID, instrumentID), side, qty)
}

// GetSnapshot reports the book's best levels. Unknown instruments produce an
// empty snapshot.
func (e *Engine) GetSnapshot(id marketv1.InstrumentID) orderbookv1.MarketSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	book, ok := e.books[id]
	if !ok {
		return orderbookv1.MarketSnapshot{}
	}
	return book.Snapshot(e.options.SnapshotDepth)
}

// GetOrders returns copies of the live orders resting on an instrument.
func (e *Engine) GetOrders(id marketv1.InstrumentID) []orderbookv1.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result []orderbookv1.Order
	for _, order := range e.activeOrders {
		if order.InstrumentID == id {
			result = append(result, *order)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetPositions returns the user's open positions valued at current marks.
func (e *Engine) GetPositions(userID marketv1.UserID) []positionv1.Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := e.ledger.Positions(userID, e.markPriceLocked)
	sort.Slice(result, func(i, j int) bool { return result[i].InstrumentID < result[j].InstrumentID })
	return result
}

// GetTotalPnL sums realized plus unrealized P&L over all the user's
// instruments, including closed positions.
func (e *Engine) GetTotalPnL(userID marketv1.UserID) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalPnL(userID, e.markPriceLocked)
}

// GetStats returns the counter block.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// GetTradeHistory returns a copy of every trade recorded this session.
func (e *Engine) GetTradeHistory() []orderbookv1.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]orderbookv1.TradeRecord, len(e.tradeHistory))
	copy(history, e.tradeHistory)
	return history
}

// GetFillHistory returns a copy of every fill emitted this session.
func (e *Engine) GetFillHistory() []orderbookv1.Fill {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]orderbookv1.Fill, len(e.fillHistory))
	copy(history, e.fillHistory)
	return history
}

// markPriceLocked resolves the mark: last trade if present, else mid, else 0.
func (e *Engine) markPriceLocked(id marketv1.InstrumentID) marketv1.Price {
	book, ok := e.books[id]
	if !ok {
		return 0
	}

	if last := book.LastPrice(); last > 0 {
		return last
	}
	return book.MidPrice()
}
