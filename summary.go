package cryptofolio

import "time"

// PortfolioSummary is the valuation of a portfolio at a point in time.
type PortfolioSummary struct {
	AsOf   time.Time
	Policy RedeploymentPolicy
	Assets []AssetSummary // sorted by symbol
	Totals []Totals       // in the requested currency order
}

// AssetSummary is a position valued at the current price. Money figures are
// in the position currency.
type AssetSummary struct {
	Position
	Price      Money // zero when nothing is held
	Value      Money // holdings x price
	Unrealized Money // unrealized P&L
}

// Totals are the portfolio-wide figures in one display currency.
type Totals struct {
	Currency                string
	TotalInvested           Money
	TotalSold               Money
	TotalCryptoSold         Money // sells of assets that are not stablecoins
	CrossAssetPaymentsTotal Money
	NetInvested             Money // TotalInvested - TotalSold
	TotalValue              Money
	RealizedPnL             Money
	UnrealizedPnL           Money
}

// In returns the totals in a currency.
func (s *PortfolioSummary) In(currency string) (Totals, bool) {
	for _, t := range s.Totals {
		if t.Currency == currency {
			return t, true
		}
	}
	return Totals{}, false
}

// Asset returns the summary of one asset.
func (s *PortfolioSummary) Asset(symbol string) (AssetSummary, bool) {
	for _, a := range s.Assets {
		if a.Asset == symbol {
			return a, true
		}
	}
	return AssetSummary{}, false
}

func newTotals(cur string) Totals {
	zero := M(0, cur)
	return Totals{
		Currency:                cur,
		TotalInvested:           zero,
		TotalSold:               zero,
		TotalCryptoSold:         zero,
		CrossAssetPaymentsTotal: zero,
		NetInvested:             zero,
		TotalValue:              zero,
		RealizedPnL:             zero,
		UnrealizedPnL:           zero,
	}
}

// add converts the figures of an asset into the totals currency and adds them.
func (t *Totals) add(a AssetSummary, stable bool, rates RateSource) error {
	fields := []struct {
		dst *Money
		src Money
	}{
		{&t.TotalInvested, a.TotalInvested},
		{&t.TotalSold, a.TotalSold},
		{&t.CrossAssetPaymentsTotal, a.CrossAssetPayments},
		{&t.TotalValue, a.Value},
		{&t.RealizedPnL, a.RealizedPnL},
		{&t.UnrealizedPnL, a.Unrealized},
	}
	if !stable {
		fields = append(fields, struct {
			dst *Money
			src Money
		}{&t.TotalCryptoSold, a.TotalSold})
	}
	for _, f := range fields {
		v, err := Convert(f.src, t.Currency, rates)
		if err != nil {
			return err
		}
		*f.dst = f.dst.Add(v)
	}
	t.NetInvested = t.TotalInvested.Sub(t.TotalSold)
	return nil
}
