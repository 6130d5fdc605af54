package cryptofolio

// event represents a single, atomic effect of a transaction on one position.
// It is the lowest-level fact from which positions are derived.
type event interface {
	symbol() string
	source() Transaction
}

// Journal holds the events of a ledger in chronological order.
type Journal struct {
	events []event
}

// acquire adds units to a position.
type acquire struct {
	tx       Transaction
	asset    string
	quantity Quantity
	cost     Money // the amount, plus the fee when paid with fiat.
	funded   bool  // true when paid by spending another asset.
}

func (e acquire) symbol() string      { return e.asset }
func (e acquire) source() Transaction { return e.tx }

// dispose removes units sold for fiat.
type dispose struct {
	tx       Transaction
	asset    string
	quantity Quantity
	proceeds Money // the amount, minus the fee.
}

func (e dispose) symbol() string      { return e.asset }
func (e dispose) source() Transaction { return e.tx }

// redeploy removes units spent to buy another asset.
type redeploy struct {
	tx       Transaction
	asset    string
	quantity Quantity
	value    Money  // fiat-equivalent value of the purchase.
	target   string // the asset bought.
}

func (e redeploy) symbol() string      { return e.asset }
func (e redeploy) source() Transaction { return e.tx }

// newJournal converts chronologically sorted transactions into events.
// A cross-asset buy yields the outflow of the spent asset before the inflow
// of the purchased one.
func newJournal(txs []Transaction) *Journal {
	j := &Journal{events: make([]event, 0, len(txs))}
	for _, tx := range txs {
		switch {
		case tx.Command == CmdSell:
			j.events = append(j.events, dispose{
				tx:       tx,
				asset:    tx.Asset,
				quantity: tx.Quantity,
				proceeds: tx.Amount().Sub(tx.Fee),
			})
		case tx.IsCrossAsset():
			j.events = append(j.events,
				redeploy{
					tx:       tx,
					asset:    tx.PaymentSource,
					quantity: tx.PaymentQuantity,
					value:    tx.Amount(),
					target:   tx.Asset,
				},
				acquire{
					tx:       tx,
					asset:    tx.Asset,
					quantity: tx.Quantity,
					cost:     tx.Amount(),
					funded:   true,
				})
		default:
			j.events = append(j.events, acquire{
				tx:       tx,
				asset:    tx.Asset,
				quantity: tx.Quantity,
				cost:     tx.Amount().Add(tx.Fee),
			})
		}
	}
	return j
}
