package cryptofolio

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ledger is the append-only list of transactions of a portfolio, together with
// the assets they refer to.
//
// In a Ledger transactions are always in chronological order, ties being
// broken by insertion order. Every write is validated and checked against the
// whole history before it is accepted, so a Ledger never holds a transaction
// that drives a holding negative.
type Ledger struct {
	mu           sync.RWMutex
	assets       map[string]Asset
	transactions []Transaction
	corrections  []CorrectionRecord
	seq          uint64

	store Store
	log   *zap.Logger
	now   func() time.Time
	newID func() TransactionID
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStore persists every accepted write into s.
func WithStore(s Store) Option { return func(l *Ledger) { l.store = s } }

// WithLogger sets the logger used to trace writes.
func WithLogger(log *zap.Logger) Option { return func(l *Ledger) { l.log = log } }

// WithClock sets the clock used to time-stamp transactions recorded without a time.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// WithIDGenerator sets the generator of transaction identifiers.
func WithIDGenerator(gen func() TransactionID) Option { return func(l *Ledger) { l.newID = gen } }

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		assets: make(map[string]Asset),
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  NewTransactionID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenLedger rebuilds a ledger from the content of a store, then keeps
// persisting new writes into it. Assets are loaded first when the store also
// implements AssetStore.
func OpenLedger(s Store, opts ...Option) (*Ledger, error) {
	l := NewLedger(opts...)
	l.store = nil
	if as, ok := s.(AssetStore); ok {
		assets, err := as.Assets()
		if err != nil {
			return nil, fmt.Errorf("cannot load assets: %w", err)
		}
		for _, a := range assets {
			if err := l.Declare(a); err != nil {
				return nil, err
			}
		}
	}
	txs, err := s.Query("")
	if err != nil {
		return nil, fmt.Errorf("cannot load transactions: %w", err)
	}
	for _, tx := range txs {
		if _, err := l.Record(tx); err != nil {
			return nil, fmt.Errorf("cannot load transaction %s: %w", tx.ID, err)
		}
	}
	l.store = s
	return l, nil
}

// Declare registers an asset. Transactions can only refer to declared assets.
func (l *Ledger) Declare(a Asset) error {
	if a.Class == "" {
		a.Class = Coin
	}
	if err := a.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.assets[a.Symbol]; exists {
		return invalid("symbol", "%s is already declared", a.Symbol)
	}
	if as, ok := l.store.(AssetStore); ok {
		if err := as.DeclareAsset(a); err != nil {
			return fmt.Errorf("cannot store asset %s: %w", a.Symbol, err)
		}
	}
	l.assets[a.Symbol] = a
	l.log.Debug("declare", zap.String("asset", a.Symbol), zap.String("class", string(a.Class)))
	return nil
}

// Asset returns the asset declared with this symbol.
func (l *Ledger) Asset(symbol string) (Asset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.assets[symbol]
	return a, ok
}

// Assets returns the declared assets sorted by symbol.
func (l *Ledger) Assets() []Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.SortedFunc(maps.Values(l.assets), func(a, b Asset) int { return strings.Compare(a.Symbol, b.Symbol) })
}

// Record validates tx and appends it to the ledger. A transaction without
// an identifier gets a new one; a transaction without a time is recorded now.
func (l *Ledger) Record(tx Transaction) (TransactionID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.admit(tx)
	if err != nil {
		return "", err
	}
	if tx.ID == "" {
		tx.ID = l.newID()
	} else if _, _, exists := l.find(tx.ID); exists {
		return "", invalid("id", "transaction %s already exists", tx.ID)
	}
	tx.seq = l.seq + 1

	candidate := append(slices.Clone(l.transactions), tx)
	sortTransactions(candidate)
	if err := check(candidate); err != nil {
		return "", err
	}
	if l.store != nil {
		if err := l.store.Insert(tx); err != nil {
			return "", fmt.Errorf("cannot store transaction %s: %w", tx.ID, err)
		}
	}
	l.transactions = candidate
	l.seq = tx.seq
	l.log.Info("append", zap.String("id", string(tx.ID)), zap.Time("time", tx.Time), zap.Stringer("tx", tx))
	return tx.ID, nil
}

// admit runs the checks every write goes through.
func (l *Ledger) admit(tx Transaction) (Transaction, error) {
	tx, err := tx.Validate()
	if err != nil {
		return tx, err
	}
	if tx.Time.IsZero() {
		tx.Time = l.now()
	}
	return l.resolve(tx)
}

// check replays the whole history to detect holdings going negative or an
// asset priced in several currencies.
func check(txs []Transaction) error {
	_, err := Calculator{Policy: Transfer}.replay(newJournal(txs))
	return err
}

// sortTransactions sorts by time, then by insertion order.
func sortTransactions(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

func (l *Ledger) find(id TransactionID) (int, Transaction, bool) {
	for i, tx := range l.transactions {
		if tx.ID == id {
			return i, tx, true
		}
	}
	return -1, Transaction{}, false
}

// Transaction returns the transaction with this identifier.
func (l *Ledger) Transaction(id TransactionID) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, tx, ok := l.find(id)
	return tx, ok
}

// ListByAsset returns the transactions of an asset in chronological order.
// Buys paid with the asset are not included: they belong to the asset bought.
func (l *Ledger) ListByAsset(symbol string) []Transaction {
	return slices.Collect(l.values(ByAsset(symbol)))
}

// All returns every transaction in chronological order.
func (l *Ledger) All() []Transaction { return slices.Collect(l.values()) }

// Until returns the transactions that happened at or before t.
func (l *Ledger) Until(t time.Time) []Transaction { return slices.Collect(l.values(Until(t))) }

func (l *Ledger) values(filters ...func(Transaction) bool) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.Transactions(filters...) {
			if !yield(tx) {
				return
			}
		}
	}
}

// Transactions returns an iterator over the transactions accepted by every filter.
func (l *Ledger) Transactions(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	l.mu.RLock()
	txs := l.transactions
	l.mu.RUnlock()
	// txs is never modified in place: writes replace the slice.
	return func(yield func(int, Transaction) bool) {
	next:
		for i, tx := range txs {
			for _, filter := range filters {
				if !filter(tx) {
					continue next
				}
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

// ByAsset accepts transactions on the asset symbol.
func ByAsset(symbol string) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Asset == symbol }
}

// Involving accepts transactions on the asset symbol or paid with it.
func Involving(symbol string) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Asset == symbol || tx.PaymentSource == symbol }
}

// Until accepts transactions that happened at or before t.
func Until(t time.Time) func(Transaction) bool {
	return func(tx Transaction) bool { return !tx.Time.After(t) }
}

// Correction lists the fields to change in a recorded transaction. Nil fields
// are kept.
type Correction struct {
	Quantity        *Quantity
	Price           *Money
	Fee             *Money
	PaymentSource   *string
	PaymentQuantity *Quantity
	Time            *time.Time
	Note            *string
	Reason          string

	// set when replaying a persisted correction.
	paymentDerived bool
	p2p            *P2PDetails
}

func (c Correction) apply(tx Transaction) Transaction {
	if c.Quantity != nil {
		tx.Quantity = *c.Quantity
	}
	if c.Price != nil {
		tx.Price = *c.Price
	}
	if c.Fee != nil {
		tx.Fee = *c.Fee
	}
	if c.PaymentSource != nil && *c.PaymentSource != tx.PaymentSource {
		tx.PaymentSource = *c.PaymentSource
		// a new source invalidates the quantity derived for the old one.
		tx.PaymentQuantity, tx.paymentDerived = Quantity{}, false
	}
	switch {
	case c.PaymentQuantity != nil:
		tx.PaymentQuantity, tx.paymentDerived = *c.PaymentQuantity, c.paymentDerived
	case tx.paymentDerived:
		// derived again from the corrected amount.
		tx.PaymentQuantity, tx.paymentDerived = Quantity{}, false
	}
	switch {
	case c.p2p != nil:
		p := *c.p2p
		tx.P2P = &p
	case tx.P2P != nil && (c.Quantity != nil || c.Price != nil) && tx.Quantity.IsPositive():
		// the fiat paid is the fact: a new quantity changes the unit price,
		// a new price changes the fiat paid.
		p := *tx.P2P
		if c.Price != nil {
			p.FiatAmount = tx.Price.Mul(tx.Quantity)
		} else {
			tx.Price = p.FiatAmount.Div(tx.Quantity)
		}
		tx.P2P = &p
	}
	if c.Time != nil {
		tx.Time = *c.Time
	}
	if c.Note != nil {
		tx.Note = *c.Note
	}
	return tx
}

// CorrectionRecord is an entry of the audit trail of corrections.
type CorrectionRecord struct {
	At     time.Time
	Reason string
	Before Transaction
	After  Transaction

	seq uint64 // number of transactions recorded when the correction was made.
}

// Correct applies a correction to a recorded transaction. The corrected
// transaction is validated as a whole and the ledger is checked again before
// the change is accepted.
func (l *Ledger) Correct(id TransactionID, c Correction) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.correct(id, c, l.now())
}

func (l *Ledger) correct(id TransactionID, c Correction, at time.Time) (Transaction, error) {
	i, before, ok := l.find(id)
	if !ok {
		return Transaction{}, invalid("id", "transaction %s not found", id)
	}
	after, err := l.admit(c.apply(before))
	if err != nil {
		return before, err
	}
	after.ID, after.seq = before.ID, before.seq

	candidate := slices.Clone(l.transactions)
	candidate[i] = after
	sortTransactions(candidate)
	if err := check(candidate); err != nil {
		return before, err
	}
	rec := CorrectionRecord{At: at, Reason: c.Reason, Before: before, After: after, seq: l.seq}
	if err := l.storeCorrection(rec); err != nil {
		return before, fmt.Errorf("cannot store correction of %s: %w", id, err)
	}
	l.transactions = candidate
	l.corrections = append(l.corrections, rec)
	l.log.Info("correct", zap.String("id", string(id)), zap.Stringer("before", before), zap.Stringer("after", after), zap.String("reason", c.Reason))
	return after, nil
}

func (l *Ledger) storeCorrection(rec CorrectionRecord) error {
	switch s := l.store.(type) {
	case nil:
		return nil
	case CorrectionStore:
		return s.Correct(rec)
	default:
		return s.Update(rec.After.ID, rec.After)
	}
}

// Corrections returns the audit trail of the corrections applied to this ledger.
func (l *Ledger) Corrections() []CorrectionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.corrections)
}
