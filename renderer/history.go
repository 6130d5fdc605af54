package renderer

import (
	"github.com/etnz/cryptofolio/snapshots"
)

// HistoryMarkdown renders the snapshot history in one currency.
func HistoryMarkdown(points []snapshots.Point, currency string) string {
	r := newRenderer()
	r.Printf("# History in %s\n\n", currency)
	if len(points) == 0 {
		r.Printf("No snapshot taken in %s yet.\n", currency)
		return r.String()
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.At.Format("2006-01-02"),
			p.Value.String(),
			p.NetInvested.String(),
			p.Unrealized.String(),
		})
	}
	table(r, "lrrr", []string{"Date", "Value", "Net Invested", "Unrealized"}, rows)
	return r.String()
}
