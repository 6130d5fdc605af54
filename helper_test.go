package cryptofolio

import (
	"fmt"
	"testing"
	"time"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// VND is a helper for test to create vietnamese dong money from const
func VND(v float64) Money { return M(v, "VND") }

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// day returns midnight UTC of a day in 2025.
func day(month time.Month, d int) time.Time { return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC) }

// seqIDs returns an id generator producing tx1, tx2, ...
func seqIDs() func() TransactionID {
	n := 0
	return func() TransactionID {
		n++
		return TransactionID(fmt.Sprintf("tx%d", n))
	}
}

// newTestLedger returns a ledger with BTC, ETH and USDT declared.
func newTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	l := NewLedger(append([]Option{WithIDGenerator(seqIDs())}, opts...)...)
	for _, a := range []Asset{
		NewAsset("BTC", "Bitcoin", Coin),
		NewAsset("ETH", "Ether", Coin),
		NewAsset("USDT", "Tether", Stable),
	} {
		if err := l.Declare(a); err != nil {
			t.Fatalf("Declare(%s) failed: %v", a.Symbol, err)
		}
	}
	return l
}

// mustRecord records transactions or fails the test.
func mustRecord(t *testing.T, l *Ledger, txs ...Transaction) []TransactionID {
	t.Helper()
	ids := make([]TransactionID, 0, len(txs))
	for _, tx := range txs {
		id, err := l.Record(tx)
		if err != nil {
			t.Fatalf("Record(%v) failed: %v", tx, err)
		}
		ids = append(ids, id)
	}
	return ids
}
