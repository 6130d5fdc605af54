package snapshots

import (
	"slices"
	"time"

	"github.com/etnz/cryptofolio"
)

// Point is one sample of the portfolio history in a currency.
type Point struct {
	At          time.Time
	Value       cryptofolio.Money
	NetInvested cryptofolio.Money
	Unrealized  cryptofolio.Money
}

// Series returns the history of the portfolio in currency, sorted by date.
// Snapshots taken without that currency are skipped.
func Series(records []Record, currency string) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		t, ok := r.Snapshot.In(currency)
		if !ok {
			continue
		}
		points = append(points, Point{
			At:          r.Snapshot.AsOf,
			Value:       t.TotalValue,
			NetInvested: t.NetInvested,
			Unrealized:  t.UnrealizedPnL,
		})
	}
	slices.SortStableFunc(points, func(a, b Point) int { return a.At.Compare(b.At) })
	return points
}
