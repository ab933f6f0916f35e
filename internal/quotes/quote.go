// Package quotes holds the StockQuote data model and its wire codec.
package quotes

import (
	"fmt"

	"github.com/nsvirk/moneyquotes/internal/errs"
)

// MaxTickerLen is the maximum length, in bytes, of a ticker symbol.
const MaxTickerLen = 4

// StockQuote is one data point for a ticker: price, volume and the
// timestamp (ms since epoch) at which it was generated. Immutable once
// transmitted; the generator keeps its own mutable copy per ticker.
type StockQuote struct {
	Ticker    string
	Price     uint64
	Volume    uint64
	Timestamp uint64
}

// Validate checks the invariants of §3: price and volume are nonzero,
// and the ticker is 1-4 ASCII bytes.
func (q StockQuote) Validate() error {
	if q.Price == 0 {
		return fmt.Errorf("%w: price must be > 0", errs.InvalidInput)
	}
	if q.Volume == 0 {
		return fmt.Errorf("%w: volume must be > 0", errs.InvalidInput)
	}
	if len(q.Ticker) == 0 || len(q.Ticker) > MaxTickerLen {
		return fmt.Errorf("%w: ticker length must be in [1,%d], got %d", errs.InvalidInput, MaxTickerLen, len(q.Ticker))
	}
	for i := 0; i < len(q.Ticker); i++ {
		if q.Ticker[i] > 127 {
			return fmt.Errorf("%w: ticker must be ASCII", errs.InvalidInput)
		}
	}
	return nil
}
