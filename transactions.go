package cryptofolio

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommandType is a typed string for identifying ledger commands.
type CommandType string

// Command types used in the ledger file.
const (
	CmdDeclare CommandType = "declare"
	CmdBuy     CommandType = "buy"
	CmdSell    CommandType = "sell"
	CmdCorrect CommandType = "correct"
)

// p2pRateTolerance is the maximum difference accepted between the rate quoted
// on a P2P trade and the rate recomputed from its fiat and crypto amounts.
var p2pRateTolerance = decimal.NewFromFloat(0.01)

// TransactionID identifies a transaction in the ledger.
type TransactionID string

// NewTransactionID returns a fresh random identifier.
func NewTransactionID() TransactionID { return TransactionID(uuid.NewString()) }

// P2PDetails holds the extra information of an off-exchange trade.
type P2PDetails struct {
	FiatAmount    Money  // total fiat paid (buy) or received (sell)
	Rate          Money  // quoted fiat per unit, zero when not quoted
	Platform      string // e.g. "Binance P2P"
	Counterparty  string
	PaymentMethod string // e.g. "bank transfer"
}

// Transaction is a buy or a sell of a single asset.
//
// A buy with a PaymentSource was funded by spending PaymentQuantity units of
// another asset held in the portfolio instead of fiat.
type Transaction struct {
	ID              TransactionID
	Command         CommandType // CmdBuy or CmdSell
	Asset           string
	Quantity        Quantity
	Price           Money // per unit
	Fee             Money // in the price currency
	PaymentSource   string
	PaymentQuantity Quantity
	Time            time.Time
	Note            string
	P2P             *P2PDetails

	seq            uint64 // insertion order, breaks ties between equal timestamps.
	paymentDerived bool   // PaymentQuantity was computed from the amount, not entered.
}

// NewBuy creates a fiat funded buy transaction.
func NewBuy(at time.Time, note, asset string, quantity Quantity, price Money) Transaction {
	return Transaction{Command: CmdBuy, Time: at, Note: note, Asset: asset, Quantity: quantity, Price: price}
}

// NewSell creates a sell transaction.
func NewSell(at time.Time, note, asset string, quantity Quantity, price Money) Transaction {
	return Transaction{Command: CmdSell, Time: at, Note: note, Asset: asset, Quantity: quantity, Price: price}
}

// NewP2P creates a buy or sell of an off-exchange trade. Its unit price is
// the fiat amount divided by the quantity.
func NewP2P(at time.Time, note string, cmd CommandType, asset string, quantity Quantity, p2p P2PDetails) Transaction {
	p2p.Rate = p2p.Rate.In(p2p.FiatAmount.Currency())
	price := M(0, p2p.FiatAmount.Currency())
	if !quantity.IsZero() {
		price = p2p.FiatAmount.Div(quantity)
	}
	return Transaction{Command: cmd, Time: at, Note: note, Asset: asset, Quantity: quantity, Price: price, P2P: &p2p}
}

// WithFee returns a copy of t with a fee.
func (t Transaction) WithFee(fee Money) Transaction {
	t.Fee = fee
	return t
}

// PaidWith returns a copy of t funded by spending 'quantity' units of the
// asset 'source'. A zero quantity lets the ledger derive it for stablecoins.
func (t Transaction) PaidWith(source string, quantity Quantity) Transaction {
	t.PaymentSource = source
	t.PaymentQuantity = quantity
	return t
}

// Currency returns the currency the transaction is priced in.
func (t Transaction) Currency() string { return t.Price.Currency() }

// Amount returns quantity x price. A P2P trade amounts to the fiat that
// changed hands, which the unit price only approximates.
func (t Transaction) Amount() Money {
	if t.P2P != nil && t.P2P.FiatAmount.Currency() == t.Price.Currency() {
		return t.P2P.FiatAmount
	}
	return t.Price.Mul(t.Quantity)
}

// PaymentDerived reports whether PaymentQuantity was computed by the ledger
// from the purchase amount. A derived quantity follows corrections of the
// amount.
func (t Transaction) PaymentDerived() bool { return t.paymentDerived }

// IsCrossAsset reports whether the transaction is a buy funded by another asset.
func (t Transaction) IsCrossAsset() bool { return t.Command == CmdBuy && t.PaymentSource != "" }

// Seq returns the insertion rank of the transaction in its ledger.
func (t Transaction) Seq() uint64 { return t.seq }

// Validate checks the fields that do not depend on the ledger state and applies
// quick fixes (fee currency defaulting to the price currency). It returns the
// possibly fixed transaction.
func (t Transaction) Validate() (Transaction, error) {
	if t.Command != CmdBuy && t.Command != CmdSell {
		return t, invalid("type", "must be %q or %q, got %q", CmdBuy, CmdSell, t.Command)
	}
	if t.Asset == "" {
		return t, invalid("asset", "asset symbol is missing")
	}
	if !t.Quantity.IsPositive() {
		return t, invalid("quantity", "must be positive, got %s", t.Quantity)
	}
	if t.Price.IsNegative() {
		return t, invalid("price", "must not be negative, got %s", t.Price)
	}
	if t.Price.Currency() == "" {
		return t, invalid("price", "currency is missing")
	}
	if t.Fee.IsNegative() {
		return t, invalid("fee", "must not be negative, got %s", t.Fee)
	}
	if t.Fee.Currency() == "" {
		t.Fee = t.Fee.In(t.Price.Currency())
	} else if t.Fee.Currency() != t.Price.Currency() {
		return t, invalid("fee", "fee currency %s does not match price currency %s", t.Fee.Currency(), t.Price.Currency())
	}

	if t.PaymentQuantity.IsNegative() {
		return t, invalid("paymentQuantity", "must not be negative, got %s", t.PaymentQuantity)
	}
	if t.PaymentSource == "" && !t.PaymentQuantity.IsZero() {
		return t, invalid("paymentQuantity", "set without a payment source")
	}
	if t.PaymentSource != "" {
		if t.Command == CmdSell {
			return t, invalid("paymentSource", "a sell cannot have a payment source")
		}
		if t.PaymentSource == t.Asset {
			return t, invalid("paymentSource", "%s cannot pay for itself", t.Asset)
		}
	}

	if t.P2P != nil {
		if err := t.validateP2P(); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (t Transaction) validateP2P() error {
	p := t.P2P
	if !p.FiatAmount.IsPositive() {
		return invalid("fiatAmount", "must be positive, got %s", p.FiatAmount)
	}
	if err := ValidateCurrency(p.FiatAmount.Currency()); err != nil {
		return invalid("fiatAmount", "%v", err)
	}
	if t.Price.Currency() != p.FiatAmount.Currency() {
		return invalid("price", "p2p price currency %s does not match fiat currency %s", t.Price.Currency(), p.FiatAmount.Currency())
	}
	if p.Rate.IsZero() {
		return nil
	}
	if p.Rate.Currency() != "" && p.Rate.Currency() != p.FiatAmount.Currency() {
		return invalid("rate", "rate currency %s does not match fiat currency %s", p.Rate.Currency(), p.FiatAmount.Currency())
	}
	computed := p.FiatAmount.Decimal().Div(t.Quantity.Decimal())
	if computed.Sub(p.Rate.Decimal()).Abs().GreaterThanOrEqual(p2pRateTolerance) {
		return invalid("rate", "quoted rate %s differs from fiat/quantity %s", p.Rate.Decimal(), computed)
	}
	return nil
}

// Equal compares every recorded field of two transactions.
func (t Transaction) Equal(o Transaction) bool {
	if (t.P2P == nil) != (o.P2P == nil) {
		return false
	}
	if t.P2P != nil && !t.P2P.equal(*o.P2P) {
		return false
	}
	return t.ID == o.ID && t.Command == o.Command && t.Asset == o.Asset &&
		t.Quantity.Equal(o.Quantity) && t.Price.Equal(o.Price) && t.Fee.Equal(o.Fee) &&
		t.PaymentSource == o.PaymentSource && t.PaymentQuantity.Equal(o.PaymentQuantity) &&
		t.paymentDerived == o.paymentDerived && t.Time.Equal(o.Time) && t.Note == o.Note
}

func (p P2PDetails) equal(o P2PDetails) bool {
	return p.FiatAmount.Equal(o.FiatAmount) && p.Rate.Equal(o.Rate) &&
		p.Platform == o.Platform && p.Counterparty == o.Counterparty && p.PaymentMethod == o.PaymentMethod
}

func (t Transaction) String() string {
	s := fmt.Sprintf("%s %s %s @ %s", t.Command, t.Quantity, t.Asset, t.Price)
	if t.PaymentSource != "" {
		s += " paid with " + t.PaymentSource
	}
	return s
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", t.Command)
	w.Optional("id", t.ID)
	w.Append("time", t.Time.UTC().Format(time.RFC3339))
	w.Append("asset", t.Asset)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price.Decimal())
	w.Append("currency", t.Price.Currency())
	if !t.Fee.IsZero() {
		w.Append("fee", t.Fee.Decimal())
		w.Append("feeCurrency", t.Fee.Currency())
	}
	w.Optional("paymentSource", t.PaymentSource)
	if !t.PaymentQuantity.IsZero() {
		w.Append("paymentQuantity", t.PaymentQuantity)
		w.Optional("paymentDerived", t.paymentDerived)
	}
	if t.P2P != nil {
		w.Append("p2p", p2pJSON{
			FiatAmount:    t.P2P.FiatAmount.Decimal(),
			FiatCurrency:  t.P2P.FiatAmount.Currency(),
			Rate:          t.P2P.Rate.Decimal(),
			Platform:      t.P2P.Platform,
			Counterparty:  t.P2P.Counterparty,
			PaymentMethod: t.P2P.PaymentMethod,
		})
	}
	w.Optional("note", t.Note)
	return w.MarshalJSON()
}

// p2pJSON is the persisted form of P2PDetails.
type p2pJSON struct {
	FiatAmount    decimal.Decimal `json:"fiatAmount"`
	FiatCurrency  string          `json:"fiatCurrency"`
	Rate          decimal.Decimal `json:"rate"`
	Platform      string          `json:"platform,omitempty"`
	Counterparty  string          `json:"counterparty,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

// txJSON has all the fields of a persisted transaction.
type txJSON struct {
	Command         CommandType     `json:"command"`
	ID              TransactionID   `json:"id"`
	Time            time.Time       `json:"time"`
	Asset           string          `json:"asset"`
	Quantity        Quantity        `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	Fee             decimal.Decimal `json:"fee"`
	FeeCurrency     string          `json:"feeCurrency"`
	PaymentSource   string          `json:"paymentSource"`
	PaymentQuantity Quantity        `json:"paymentQuantity"`
	PaymentDerived  bool            `json:"paymentDerived"`
	P2P             *p2pJSON        `json:"p2p"`
	Note            string          `json:"note"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp txJSON
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = temp.transaction()
	return nil
}

func (j txJSON) transaction() Transaction {
	t := Transaction{
		ID:              j.ID,
		Command:         j.Command,
		Asset:           j.Asset,
		Quantity:        j.Quantity,
		Price:           M(j.Price, j.Currency),
		Fee:             M(j.Fee, j.FeeCurrency),
		PaymentSource:   j.PaymentSource,
		PaymentQuantity: j.PaymentQuantity,
		Time:            j.Time,
		Note:            j.Note,
		paymentDerived:  j.PaymentDerived && !j.PaymentQuantity.IsZero(),
	}
	if j.P2P != nil {
		t.P2P = &P2PDetails{
			FiatAmount:    M(j.P2P.FiatAmount, j.P2P.FiatCurrency),
			Rate:          M(j.P2P.Rate, j.P2P.FiatCurrency),
			Platform:      j.P2P.Platform,
			Counterparty:  j.P2P.Counterparty,
			PaymentMethod: j.P2P.PaymentMethod,
		}
	}
	return t
}
