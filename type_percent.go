package cryptofolio

import "fmt"

// Percent is a ratio expressed in percent, used for display only.
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// ratio returns a / b in percent, zero when b is zero.
func ratio(a, b Money) Percent {
	if b.IsZero() {
		return 0
	}
	f, _ := a.Decimal().Div(b.Decimal()).Shift(2).Float64()
	return Percent(f)
}

// Return is the unrealized P&L relative to the cost basis of the holdings.
func (a AssetSummary) Return() Percent { return ratio(a.Unrealized, a.CostBasis()) }

// Return is the unrealized P&L relative to the net invested capital.
func (t Totals) Return() Percent { return ratio(t.UnrealizedPnL, t.NetInvested) }
