package cryptofolio

import (
	"fmt"
	"slices"
	"strings"
)

// Position is the accounting state of one asset after replaying its history.
//
// All money figures of a position are in its cost currency: the currency of
// the first transaction recorded on the asset.
type Position struct {
	Asset    string
	Currency string

	Holdings           Quantity
	BoughtQuantity     Quantity // bought with fiat
	ReceivedQuantity   Quantity // bought by spending another asset
	SoldQuantity       Quantity
	RedeployedQuantity Quantity // spent to buy other assets

	TotalInvested      Money // fiat-funded buys, fees included
	TotalSold          Money // sells, fees deducted
	CrossAssetPayments Money // value of the buys funded by another asset
	RealizedPnL        Money

	costPool Money
	costQty  Quantity
}

// AverageCost returns the weighted-average cost of one unit.
func (p Position) AverageCost() Money {
	if p.costQty.IsZero() {
		return M(0, p.Currency)
	}
	return p.costPool.Div(p.costQty)
}

// CostBasis returns the cost of the units still held.
func (p Position) CostBasis() Money { return p.AverageCost().Mul(p.Holdings) }

// NetInvested returns TotalInvested - TotalSold.
func (p Position) NetInvested() Money { return p.TotalInvested.Sub(p.TotalSold) }

// MarketValue returns the value of the holdings at price, which must be in the
// position currency.
func (p Position) MarketValue(price Money) Money { return price.Mul(p.Holdings).In(p.Currency) }

// UnrealizedPnL returns (price - average cost) x holdings. price must be in the
// position currency.
func (p Position) UnrealizedPnL(price Money) Money {
	return price.In(p.Currency).Sub(p.AverageCost()).Mul(p.Holdings)
}

func (p Position) String() string {
	return fmt.Sprintf("%s %s avg %s", p.Holdings, p.Asset, p.AverageCost())
}

// bind sets the cost currency of the position, or checks that cur matches it.
func (p *Position) bind(cur string, tx Transaction) error {
	if p.Currency == "" {
		p.Currency = cur
		return nil
	}
	if p.Currency != cur {
		return &DataIntegrityError{
			Asset:       p.Asset,
			Transaction: tx.ID,
			Reason:      fmt.Sprintf("priced in %s but the position is held in %s", cur, p.Currency),
		}
	}
	return nil
}

// withdraw removes q units or fails when the position does not hold them.
func (p *Position) withdraw(q Quantity, tx Transaction, what string) error {
	if p.Holdings.LessThan(q) {
		return &DataIntegrityError{
			Asset:       p.Asset,
			Transaction: tx.ID,
			Reason:      fmt.Sprintf("%s of %s exceeds holdings of %s on %s", what, q, p.Holdings, tx.Time.Format("2006-01-02")),
		}
	}
	p.Holdings = p.Holdings.Sub(q)
	return nil
}

// settle gives the currency to zero money figures.
func (p *Position) settle() {
	p.TotalInvested = p.TotalInvested.In(p.Currency)
	p.TotalSold = p.TotalSold.In(p.Currency)
	p.CrossAssetPayments = p.CrossAssetPayments.In(p.Currency)
	p.RealizedPnL = p.RealizedPnL.In(p.Currency)
	p.costPool = p.costPool.In(p.Currency)
}

// Calculator derives positions from a sequence of transactions using the
// weighted-average cost method.
//
// Under the Disposal policy, a purchase priced in another currency than the
// cost currency of the asset spent is converted with Rates. Without Rates
// such a ledger fails with a DataIntegrityError.
type Calculator struct {
	Policy RedeploymentPolicy
	Rates  RateSource
}

// Positions replays chronologically sorted transactions and returns one
// position per asset involved, sorted by symbol.
func (c Calculator) Positions(txs []Transaction) ([]Position, error) {
	index, err := c.replay(newJournal(txs))
	if err != nil {
		return nil, err
	}
	positions := make([]Position, 0, len(index))
	for _, p := range index {
		positions = append(positions, *p)
	}
	slices.SortFunc(positions, func(a, b Position) int { return strings.Compare(a.Asset, b.Asset) })
	return positions, nil
}

func (c Calculator) replay(j *Journal) (map[string]*Position, error) {
	index := make(map[string]*Position)
	get := func(symbol string) *Position {
		p, ok := index[symbol]
		if !ok {
			p = &Position{Asset: symbol}
			index[symbol] = p
		}
		return p
	}

	for _, e := range j.events {
		p := get(e.symbol())
		switch v := e.(type) {
		case acquire:
			if err := p.bind(v.cost.Currency(), v.tx); err != nil {
				return nil, err
			}
			p.Holdings = p.Holdings.Add(v.quantity)
			if v.funded {
				p.ReceivedQuantity = p.ReceivedQuantity.Add(v.quantity)
				p.CrossAssetPayments = p.CrossAssetPayments.Add(v.cost)
				if c.Policy != Disposal {
					continue
				}
			} else {
				p.BoughtQuantity = p.BoughtQuantity.Add(v.quantity)
				p.TotalInvested = p.TotalInvested.Add(v.cost)
			}
			p.costPool = p.costPool.Add(v.cost)
			p.costQty = p.costQty.Add(v.quantity)

		case dispose:
			if err := p.bind(v.proceeds.Currency(), v.tx); err != nil {
				return nil, err
			}
			// the average cost is taken before the units leave.
			avg := p.AverageCost()
			if err := p.withdraw(v.quantity, v.tx, "sell"); err != nil {
				return nil, err
			}
			p.SoldQuantity = p.SoldQuantity.Add(v.quantity)
			p.TotalSold = p.TotalSold.Add(v.proceeds)
			p.RealizedPnL = p.RealizedPnL.Add(v.proceeds.Sub(avg.Mul(v.quantity)))

		case redeploy:
			avg := p.AverageCost()
			if err := p.withdraw(v.quantity, v.tx, "payment for "+v.target); err != nil {
				return nil, err
			}
			p.RedeployedQuantity = p.RedeployedQuantity.Add(v.quantity)
			if c.Policy == Disposal {
				value, err := c.disposalValue(p, v)
				if err != nil {
					return nil, err
				}
				p.RealizedPnL = p.RealizedPnL.Add(value.Sub(avg.Mul(v.quantity)))
			}
		}
	}

	for _, p := range index {
		p.settle()
	}
	return index, nil
}

// disposalValue returns the value of a redeployment in the cost currency of
// the position spent.
func (c Calculator) disposalValue(p *Position, v redeploy) (Money, error) {
	if v.value.Currency() == p.Currency || c.Rates == nil {
		return v.value, p.bind(v.value.Currency(), v.tx)
	}
	value, err := Convert(v.value, p.Currency, c.Rates)
	if err != nil {
		return Money{}, fmt.Errorf("cannot value the payment for %s in %s: %w", v.target, p.Asset, err)
	}
	return value, nil
}
