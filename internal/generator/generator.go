// Package generator synthesizes a stream of stock-quote updates (§4.3).
// It is grounded on server/src/generator.rs (original_source/): a
// triangular-weighted ticker pick, and a narrow multiplicative walk on
// price/volume bounded to roughly [-0.01%, +0.02%] per tick.
package generator

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/nsvirk/moneyquotes/internal/bus"
	"github.com/nsvirk/moneyquotes/internal/quotes"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
)

// Tick is the fixed generator cadence (§4.3).
const Tick = 10 * time.Millisecond

const (
	minStartPrice = 100
	maxStartPrice = 50000

	minMultiplier = 9999
	maxMultiplier = 10002
	divider       = 10000
)

// Generator owns a mutable bag of per-ticker quotes and emits one
// randomly-chosen updated quote onto the bus every Tick.
type Generator struct {
	bus     *bus.Bus
	tickers []string
	quotes  []quotes.StockQuote
	rng     *rand.Rand
}

// New builds a Generator over tickers, seeding one StockQuote per
// ticker with price uniform in [100, 50000) and volume uniform in
// [min(w), max(w)) where max(w) = 2^32 / max(1, w) and w is the
// zero-based index of the ticker (so earlier tickers get larger
// volumes, per §4.3).
func New(b *bus.Bus, tickers []string) *Generator {
	g := &Generator{
		bus:     b,
		tickers: tickers,
		quotes:  make([]quotes.StockQuote, len(tickers)),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i, ticker := range tickers {
		g.quotes[i] = g.seed(ticker, uint64(i))
	}
	return g
}

func (g *Generator) seed(ticker string, weight uint64) quotes.StockQuote {
	price := uint64(minStartPrice + g.rng.Int63n(maxStartPrice-minStartPrice))

	if weight == 0 {
		weight = 1
	}
	maxVol := uint64(math.MaxUint32+1) / weight
	minVol := maxVol / 2
	var volume uint64
	if maxVol > minVol {
		volume = minVol + uint64(g.rng.Int63n(int64(maxVol-minVol)))
	} else {
		volume = minVol
	}
	if volume == 0 {
		volume = 1
	}

	return quotes.StockQuote{
		Ticker:    ticker,
		Price:     price,
		Volume:    volume,
		Timestamp: uint64(time.Now().UnixMilli()),
	}
}

// Run blocks, emitting one Send(quote) per Tick, until ctx is
// cancelled. If the ticker list is empty the generator sleeps without
// emitting, per §4.3.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	zaplogger.Info("generator started", zaplogger.Fields{"tickers": len(g.tickers)})

	for {
		select {
		case <-ctx.Done():
			zaplogger.Info("generator stopped")
			return
		case <-ticker.C:
			if len(g.quotes) == 0 {
				continue
			}
			idx := g.randomIndex()
			g.quotes[idx] = g.step(g.quotes[idx])
			g.bus.Publish(bus.Send(g.quotes[idx]))
		}
	}
}

// randomIndex picks a ticker index with triangular weighting: the
// weight of index i in an n-length list is n-i, total weight
// n(n+1)/2, biasing traffic toward earlier-declared symbols.
func (g *Generator) randomIndex() int {
	n := len(g.quotes)
	total := n * (n + 1) / 2
	r := g.rng.Intn(total)
	for i := 0; i < n; i++ {
		weight := n - i
		if r < weight {
			return i
		}
		r -= weight
	}
	return 0
}

// step applies one bounded random walk step to q: price' = ceil(price *
// r_p / 10000), volume' = ceil(volume * r_v / 10000), each multiplier
// drawn uniformly from [9999, 10002].
func (g *Generator) step(q quotes.StockQuote) quotes.StockQuote {
	priceMul := uint64(minMultiplier + g.rng.Intn(maxMultiplier-minMultiplier+1))
	volMul := uint64(minMultiplier + g.rng.Intn(maxMultiplier-minMultiplier+1))

	q.Price = ceilDiv(q.Price*priceMul, divider)
	q.Volume = ceilDiv(q.Volume*volMul, divider)
	if q.Price == 0 {
		q.Price = 1
	}
	if q.Volume == 0 {
		q.Volume = 1
	}
	q.Timestamp = uint64(time.Now().UnixMilli())
	return q
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
