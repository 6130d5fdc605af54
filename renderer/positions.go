package renderer

import (
	"github.com/etnz/cryptofolio"
)

// PositionsMarkdown renders the cost basis of every position, with the
// quantities broken down by origin.
func PositionsMarkdown(positions []cryptofolio.Position, policy cryptofolio.RedeploymentPolicy) string {
	r := newRenderer()
	r.Printf("# Positions\n\n")
	if len(positions) == 0 {
		r.Printf("No transactions recorded.\n")
		return r.String()
	}
	r.Printf("Cross-asset payments are accounted as **%s**.\n\n", policy)

	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Asset,
			p.Holdings.String(),
			p.AverageCost().String(),
			p.CostBasis().String(),
			p.TotalInvested.String(),
			p.TotalSold.String(),
			p.RealizedPnL.String(),
		})
	}
	table(r, "lrrrrrr", []string{"Asset", "Holdings", "Average Cost", "Cost Basis", "Invested", "Sold", "Realized"}, rows)

	r.Printf("## Quantities\n\n")
	rows = rows[:0]
	for _, p := range positions {
		rows = append(rows, []string{
			p.Asset,
			p.BoughtQuantity.String(),
			p.ReceivedQuantity.String(),
			p.SoldQuantity.String(),
			p.RedeployedQuantity.String(),
			p.CrossAssetPayments.String(),
		})
	}
	table(r, "lrrrrr", []string{"Asset", "Bought", "Received", "Sold", "Redeployed", "Cross-Asset Payments"}, rows)
	return r.String()
}
