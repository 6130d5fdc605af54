package cryptofolio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// quotesFile is the persisted form of Quotes:
//
//	{"prices":{"BTC":{"amount":50000,"currency":"USD"}},"rates":{"USD":{"VND":25500}}}
type quotesFile struct {
	Prices map[string]amountField                `json:"prices"`
	Rates  map[string]map[string]decimal.Decimal `json:"rates"`
}

// DecodeQuotes reads a quote table in JSON format.
func DecodeQuotes(r io.Reader) (*Quotes, error) {
	var f quotesFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("cannot decode quotes: %w", err)
	}
	q := NewQuotes()
	for symbol, p := range f.Prices {
		if p.Amount.IsNegative() {
			return nil, fmt.Errorf("negative price for %s: %s", symbol, p.Amount)
		}
		q.SetPrice(symbol, p.Money())
	}
	for from, to := range f.Rates {
		for cur, rate := range to {
			if !rate.IsPositive() {
				return nil, fmt.Errorf("exchange rate %s->%s must be positive, got %s", from, cur, rate)
			}
			q.SetRate(from, cur, rate)
		}
	}
	return q, nil
}

// EncodeQuotes writes a quote table in JSON format. Keys are sorted.
func EncodeQuotes(w io.Writer, q *Quotes) error {
	q.mu.RLock()
	f := quotesFile{
		Prices: make(map[string]amountField, len(q.prices)),
		Rates:  make(map[string]map[string]decimal.Decimal),
	}
	for symbol, p := range q.prices {
		f.Prices[symbol] = amountField{Amount: p.Decimal(), Currency: p.Currency()}
	}
	for k, r := range q.rates {
		if f.Rates[k.from] == nil {
			f.Rates[k.from] = make(map[string]decimal.Decimal)
		}
		f.Rates[k.from][k.to] = r
	}
	q.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("cannot encode quotes: %w", err)
	}
	return nil
}
