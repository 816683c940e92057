package main

import (
	"context"
	"flag"
	"math/rand"
	"strconv"
	"time"

	app "github.com/nehadyounis/themarketmakinggame/internal/app/engine"
	instrumentv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/instrument/v1"
	marketv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/market/v1"
	orderbookv1 "github.com/nehadyounis/themarketmakinggame/internal/domain/orderbook/v1"
	"github.com/nehadyounis/themarketmakinggame/pkg/config"
	"github.com/nehadyounis/themarketmakinggame/pkg/logger"
	"github.com/nehadyounis/themarketmakinggame/pkg/util"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	if err := config.Load(cfg); err != nil {
		panic(err)
	}

	l, err := logger.NewLogger(logger.WithLoggingLevel(logger.Level(cfg.LogLevel)))
	if err != nil {
		panic(err)
	}

	log = l
}

func main() {
	totalOrders := flag.Int("orders", 10000, "number of orders to submit")
	users := flag.Int("users", 4, "number of simulated players")
	priceLevels := flag.Int64("price-levels", 20, "unique price levels around the mid")
	basePrice := flag.Int64("base-price", 10000, "mid price used for randomization")
	cancelEvery := flag.Int("cancel-every", 25, "cancel a random resting order every N submissions")
	settle := flag.Bool("settle", true, "settle scalars at their last price, and options against their underlying's value, when done")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for deterministic random streams")
	flag.Parse()

	defer log.Sync()

	rng := rand.New(rand.NewSource(*seed))

	engine := app.NewEngineWithOptions(log, &app.Options{SnapshotDepth: cfg.SnapshotDepth})

	// One request id per run, plus the engine's session id, tags every
	// context-aware log line below.
	ctx := util.WithRequestID(context.Background(), "")
	ctx = util.WithSessionID(ctx, engine.SessionID())

	specs, err := config.LoadInstruments(cfg.InstrumentFile)
	if err != nil {
		log.WarnContext(ctx, "Falling back to built-in instruments", logger.Field{
			Key:   "reason",
			Value: err.Error(),
		})
		specs = defaultInstruments()
	}

	for _, spec := range specs {
		if !engine.AddInstrument(spec) {
			log.WarnContext(ctx, "Instrument refused", logger.Field{Key: "symbol", Value: spec.Symbol})
		}
	}

	var resting []restingRef
	start := time.Now()

	for i := 0; i < *totalOrders; i++ {
		spec := specs[rng.Intn(len(specs))]
		req := nextRandomOrder(rng, spec, *basePrice, *priceLevels, *users)

		result := engine.SubmitOrder(req)
		if result.Success && result.Status != marketv1.OrderStatusFilled && result.Status != marketv1.OrderStatusCancelled {
			resting = append(resting, restingRef{orderID: result.OrderID, userID: req.UserID})
		}

		if *cancelEvery > 0 && i%*cancelEvery == 0 && len(resting) > 0 {
			pick := rng.Intn(len(resting))
			ref := resting[pick]
			engine.CancelOrder(ref.orderID, ref.userID)
			resting = append(resting[:pick], resting[pick+1:]...)
		}
	}

	elapsed := time.Since(start)

	if *settle {
		settleAll(engine, specs)
	}

	stats := engine.GetStats()
	log.InfoContext(ctx, "Session complete",
		logger.Field{Key: "elapsed", Value: elapsed.String()},
		logger.Field{Key: "totalOrders", Value: stats.TotalOrders},
		logger.Field{Key: "totalFills", Value: stats.TotalFills},
		logger.Field{Key: "totalCancels", Value: stats.TotalCancels},
		logger.Field{Key: "totalRejects", Value: stats.TotalRejects},
	)

	for u := 1; u <= *users; u++ {
		userID := marketv1.UserID(u)
		playerCtx := util.WithActorID(ctx, strconv.FormatUint(uint64(userID), 10))
		log.InfoContext(playerCtx, "Player result",
			logger.Field{Key: "totalPnL", Value: engine.GetTotalPnL(userID)},
			logger.Field{Key: "openPositions", Value: len(engine.GetPositions(userID))},
		)
	}
}

type restingRef struct {
	orderID marketv1.OrderID
	userID  marketv1.UserID
}

// nextRandomOrder builds a request around the base price, aligned to the
// instrument's tick and lot.
func nextRandomOrder(rng *rand.Rand, spec instrumentv1.Spec, basePrice, priceLevels int64, users int) orderbookv1.OrderRequest {
	userID := marketv1.UserID(rng.Intn(users) + 1)

	offset := rng.Int63n(priceLevels*2+1) - priceLevels
	price := marketv1.Price(basePrice) + marketv1.Price(offset)*spec.TickSize
	if price < spec.TickSize {
		price = spec.TickSize
	}

	side := marketv1.SideBuy
	if rng.Intn(2) == 1 {
		side = marketv1.SideSell
	}

	tif := marketv1.TIFGoodForDay
	if rng.Intn(10) == 0 {
		tif = marketv1.TIFImmediateOrCancel
	}

	return orderbookv1.OrderRequest{
		UserID:       userID,
		InstrumentID: spec.ID,
		Side:         side,
		Price:        price,
		Quantity:     spec.LotSize * marketv1.Quantity(rng.Intn(10)+1),
		TIF:          tif,
		PostOnly:     tif == marketv1.TIFGoodForDay && rng.Intn(20) == 0,
	}
}

// settleAll settles scalars first, options against the same value.
func settleAll(engine *app.Engine, specs []instrumentv1.Spec) {
	values := make(map[marketv1.InstrumentID]marketv1.Price)

	for _, spec := range specs {
		if spec.Kind != instrumentv1.KindScalar {
			continue
		}
		snapshot := engine.GetSnapshot(spec.ID)
		value := snapshot.LastPrice
		if value <= 0 {
			value = 10000
		}
		values[spec.ID] = value
		engine.SettleInstrument(spec.ID, value)
	}

	for _, spec := range specs {
		if !spec.Kind.IsOption() {
			continue
		}
		value, ok := values[spec.ReferenceID]
		if !ok {
			value = 10000
		}
		engine.SettleInstrument(spec.ID, value)
	}
}

func defaultInstruments() []instrumentv1.Spec {
	return []instrumentv1.Spec{
		{ID: 1, Symbol: "INDEX", Kind: instrumentv1.KindScalar, TickSize: 1, LotSize: 1, TickValue: 1.0},
		{ID: 2, Symbol: "INDEX-110C", Kind: instrumentv1.KindCall, ReferenceID: 1, Strike: 11000, TickSize: 1, LotSize: 1, TickValue: 1.0},
		{ID: 3, Symbol: "INDEX-90P", Kind: instrumentv1.KindPut, ReferenceID: 1, Strike: 9000, TickSize: 1, LotSize: 1, TickValue: 1.0},
	}
}
