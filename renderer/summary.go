// Package renderer formats accounting results as markdown documents.
//
// The accounting core never formats numbers; everything a human reads goes
// through this package.
package renderer

import (
	"io"

	"github.com/etnz/cryptofolio"
)

// SummaryMarkdown renders the portfolio summary: one totals table per display
// currency followed by the assets.
func SummaryMarkdown(s *cryptofolio.PortfolioSummary) string {
	r := newRenderer()
	r.Printf("# Portfolio Summary on %s\n\n", s.AsOf.Format("2006-01-02"))
	r.Printf("Cross-asset payments are accounted as **%s**.\n\n", s.Policy)

	header := []string{"Metric"}
	for _, t := range s.Totals {
		header = append(header, t.Currency)
	}
	row := func(name string, get func(cryptofolio.Totals) cryptofolio.Money) []string {
		cells := []string{name}
		for _, t := range s.Totals {
			cells = append(cells, get(t).String())
		}
		return cells
	}
	r.Printf("## Totals\n\n")
	table(r, "lrrrrr", header, [][]string{
		row("Total Value", func(t cryptofolio.Totals) cryptofolio.Money { return t.TotalValue }),
		row("Total Invested", func(t cryptofolio.Totals) cryptofolio.Money { return t.TotalInvested }),
		row("Total Sold", func(t cryptofolio.Totals) cryptofolio.Money { return t.TotalSold }),
		row("Crypto Sold", func(t cryptofolio.Totals) cryptofolio.Money { return t.TotalCryptoSold }),
		row("Net Invested", func(t cryptofolio.Totals) cryptofolio.Money { return t.NetInvested }),
		row("Cross-Asset Payments", func(t cryptofolio.Totals) cryptofolio.Money { return t.CrossAssetPaymentsTotal }),
		row("Realized P&L", func(t cryptofolio.Totals) cryptofolio.Money { return t.RealizedPnL }),
		row("Unrealized P&L", func(t cryptofolio.Totals) cryptofolio.Money { return t.UnrealizedPnL }),
		returns(s.Totals),
	})

	ConditionalBlock(r, func(w io.Writer) bool { return renderAssets(w, s.Assets) })
	return r.String()
}

func renderAssets(w io.Writer, assets []cryptofolio.AssetSummary) bool {
	var rows [][]string
	for _, a := range assets {
		if a.Holdings.IsZero() && a.RealizedPnL.IsZero() {
			continue
		}
		rows = append(rows, []string{
			a.Asset,
			a.Holdings.String(),
			a.AverageCost().String(),
			a.Price.String(),
			a.Value.String(),
			a.Unrealized.String(),
			a.Return().SignedString(),
			a.RealizedPnL.String(),
		})
	}
	if len(rows) == 0 {
		return false
	}
	io.WriteString(w, "## Assets\n\n")
	table(w, "lrrrrrrr", []string{"Asset", "Holdings", "Average Cost", "Price", "Value", "Unrealized", "Return", "Realized"}, rows)
	return true
}

func returns(totals []cryptofolio.Totals) []string {
	cells := []string{"Return"}
	for _, t := range totals {
		cells = append(cells, t.Return().SignedString())
	}
	return cells
}
