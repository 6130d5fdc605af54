package cryptofolio

import (
	"fmt"
	"time"
)

// AccountingSystem combines the ledger (the record of all transactions) with
// the price and exchange rate tables needed to value it.
type AccountingSystem struct {
	Ledger *Ledger
	Prices PriceSource
	Rates  RateSource
	Policy RedeploymentPolicy
}

// NewAccountingSystem creates a new accounting system.
func NewAccountingSystem(ledger *Ledger, prices PriceSource, rates RateSource, policy RedeploymentPolicy) *AccountingSystem {
	return &AccountingSystem{
		Ledger: ledger,
		Prices: prices,
		Rates:  rates,
		Policy: policy,
	}
}

// Positions returns the position of every asset traded at or before asOf.
func (as *AccountingSystem) Positions(asOf time.Time) ([]Position, error) {
	return Calculator{Policy: as.Policy, Rates: as.Rates}.Positions(as.Ledger.Until(asOf))
}

// Position returns the position of a single asset at asOf. An asset that
// was never traded has an empty position.
func (as *AccountingSystem) Position(symbol string, asOf time.Time) (Position, error) {
	if _, ok := as.Ledger.Asset(symbol); !ok {
		return Position{}, invalid("asset", "%q is not declared in the ledger", symbol)
	}
	positions, err := as.Positions(asOf)
	if err != nil {
		return Position{}, err
	}
	for _, p := range positions {
		if p.Asset == symbol {
			return p, nil
		}
	}
	return Position{Asset: symbol}, nil
}

// Summarize values the portfolio at asOf in each display currency.
//
// It fails with a MissingQuoteError when the price of an asset still held, or
// an exchange rate to a display currency, is missing. Quotes are never
// defaulted to zero.
func (as *AccountingSystem) Summarize(asOf time.Time, currencies ...string) (*PortfolioSummary, error) {
	currencies, err := displayCurrencies(currencies)
	if err != nil {
		return nil, err
	}
	positions, err := as.Positions(asOf)
	if err != nil {
		return nil, err
	}

	s := &PortfolioSummary{AsOf: asOf, Policy: as.Policy}
	for _, p := range positions {
		a, err := as.valuate(p)
		if err != nil {
			return nil, err
		}
		s.Assets = append(s.Assets, a)
	}

	for _, cur := range currencies {
		t := newTotals(cur)
		for _, a := range s.Assets {
			stable := false
			if asset, ok := as.Ledger.Asset(a.Asset); ok {
				stable = asset.IsStable()
			}
			if err := t.add(a, stable, as.Rates); err != nil {
				return nil, err
			}
		}
		s.Totals = append(s.Totals, t)
	}
	return s, nil
}

// valuate prices a position. The price is converted into the position
// currency when it is quoted in another one.
func (as *AccountingSystem) valuate(p Position) (AssetSummary, error) {
	a := AssetSummary{
		Position:   p,
		Price:      M(0, p.Currency),
		Value:      M(0, p.Currency),
		Unrealized: M(0, p.Currency),
	}
	if p.Holdings.IsZero() {
		return a, nil
	}
	if as.Prices == nil {
		return a, &MissingQuoteError{Kind: PriceQuote, Symbol: p.Asset}
	}
	price, ok := as.Prices.CurrentPrice(p.Asset)
	if !ok {
		return a, &MissingQuoteError{Kind: PriceQuote, Symbol: p.Asset}
	}
	local, err := Convert(price, p.Currency, as.Rates)
	if err != nil {
		return a, fmt.Errorf("cannot value %s: %w", p.Asset, err)
	}
	a.Price = local
	a.Value = p.MarketValue(local)
	a.Unrealized = p.UnrealizedPnL(local)
	return a, nil
}

// displayCurrencies checks the requested currencies and removes duplicates.
func displayCurrencies(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, invalid("currencies", "at least one display currency is required")
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(in))
	for _, cur := range in {
		if cur == "" {
			return nil, invalid("currencies", "empty currency code")
		}
		if !seen[cur] {
			seen[cur] = true
			out = append(out, cur)
		}
	}
	return out, nil
}
