package cryptofolio

import (
	"maps"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceSource gives the current market price of an asset.
type PriceSource interface {
	// CurrentPrice returns the price of one unit of symbol, or false when no
	// price is known.
	CurrentPrice(symbol string) (Money, bool)
}

// RateSource gives exchange rates between currencies.
type RateSource interface {
	// FXRate returns how many units of 'to' one unit of 'from' is worth, or
	// false when the rate is unknown.
	FXRate(from, to string) (decimal.Decimal, bool)
}

type pair struct{ from, to string }

// Quotes is an in-memory table of prices and exchange rates. It implements
// both PriceSource and RateSource and is safe for concurrent use.
type Quotes struct {
	mu     sync.RWMutex
	prices map[string]Money
	rates  map[pair]decimal.Decimal
}

// NewQuotes returns an empty quote table.
func NewQuotes() *Quotes {
	return &Quotes{
		prices: make(map[string]Money),
		rates:  make(map[pair]decimal.Decimal),
	}
}

// SetPrice sets the price of an asset.
func (q *Quotes) SetPrice(symbol string, price Money) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prices[symbol] = price
}

// SetRate sets the exchange rate from one currency to another.
func (q *Quotes) SetRate(from, to string, rate decimal.Decimal) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rates[pair{from, to}] = rate
}

func (q *Quotes) CurrentPrice(symbol string) (Money, bool) {
	if q == nil {
		return Money{}, false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	p, ok := q.prices[symbol]
	return p, ok
}

// FXRate looks up the direct pair first, then the inverse of the reverse pair.
// A currency converts to itself at rate 1.
func (q *Quotes) FXRate(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if q == nil {
		return decimal.Decimal{}, false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if r, ok := q.rates[pair{from, to}]; ok {
		return r, true
	}
	if r, ok := q.rates[pair{to, from}]; ok && !r.IsZero() {
		return decimal.NewFromInt(1).Div(r), true
	}
	return decimal.Decimal{}, false
}

// Symbols returns the symbols with a price, sorted.
func (q *Quotes) Symbols() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Sorted(maps.Keys(q.prices))
}

// Merge copies every quote of o into q, overwriting existing ones.
func (q *Quotes) Merge(o *Quotes) {
	o.mu.RLock()
	prices, rates := maps.Clone(o.prices), maps.Clone(o.rates)
	o.mu.RUnlock()

	q.mu.Lock()
	defer q.mu.Unlock()
	maps.Copy(q.prices, prices)
	maps.Copy(q.rates, rates)
}

// Convert converts m into currency 'to' using rates. A nil rates knows no
// rate.
func Convert(m Money, to string, rates RateSource) (Money, error) {
	if m.Currency() == to {
		return m, nil
	}
	if m.Currency() == "" {
		// an untyped zero.
		return m.In(to), nil
	}
	if rates == nil {
		return Money{}, &MissingQuoteError{Kind: FXQuote, From: m.Currency(), To: to}
	}
	r, ok := rates.FXRate(m.Currency(), to)
	if !ok {
		return Money{}, &MissingQuoteError{Kind: FXQuote, From: m.Currency(), To: to}
	}
	return m.MulRate(r, to), nil
}
