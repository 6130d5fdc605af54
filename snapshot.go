package cryptofolio

import (
	"time"

	"github.com/google/uuid"
)

// PortfolioSnapshot is a point-in-time materialization of holdings and
// totals, kept to chart the portfolio history. Snapshots are append-only.
type PortfolioSnapshot struct {
	ID       string             `json:"id"`
	TakenAt  time.Time          `json:"takenAt"`
	AsOf     time.Time          `json:"asOf"`
	Policy   RedeploymentPolicy `json:"policy"`
	Holdings []HoldingSnapshot  `json:"holdings"`
	Totals   []TotalsSnapshot   `json:"totals"`
}

// HoldingSnapshot is the state of one asset in a snapshot.
type HoldingSnapshot struct {
	Asset       string   `json:"asset"`
	Quantity    Quantity `json:"quantity"`
	AverageCost Money    `json:"averageCost"`
	Price       Money    `json:"price"`
	Value       Money    `json:"value"`
}

// TotalsSnapshot is Totals in a persisted form.
type TotalsSnapshot struct {
	Currency                string `json:"currency"`
	TotalInvested           Money  `json:"totalInvested"`
	TotalSold               Money  `json:"totalSold"`
	TotalCryptoSold         Money  `json:"totalCryptoSold"`
	CrossAssetPaymentsTotal Money  `json:"crossAssetPaymentsTotal"`
	NetInvested             Money  `json:"netInvested"`
	TotalValue              Money  `json:"totalValue"`
	RealizedPnL             Money  `json:"realizedPnL"`
	UnrealizedPnL           Money  `json:"unrealizedPnL"`
}

// NewPortfolioSnapshot materializes a summary. Assets no longer held are left
// out of the holdings.
func NewPortfolioSnapshot(s *PortfolioSummary, takenAt time.Time) PortfolioSnapshot {
	snap := PortfolioSnapshot{
		ID:      uuid.NewString(),
		TakenAt: takenAt,
		AsOf:    s.AsOf,
		Policy:  s.Policy,
	}
	for _, a := range s.Assets {
		if a.Holdings.IsZero() {
			continue
		}
		snap.Holdings = append(snap.Holdings, HoldingSnapshot{
			Asset:       a.Asset,
			Quantity:    a.Holdings,
			AverageCost: a.AverageCost(),
			Price:       a.Price,
			Value:       a.Value,
		})
	}
	for _, t := range s.Totals {
		snap.Totals = append(snap.Totals, TotalsSnapshot(t))
	}
	return snap
}

// In returns the totals of the snapshot in a currency.
func (s PortfolioSnapshot) In(currency string) (TotalsSnapshot, bool) {
	for _, t := range s.Totals {
		if t.Currency == currency {
			return t, true
		}
	}
	return TotalsSnapshot{}, false
}
