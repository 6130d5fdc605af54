package cryptofolio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	store := NewFileStore(path)

	l, err := store.Load(WithIDGenerator(seqIDs()))
	if err != nil {
		t.Fatalf("Load() of a missing file failed: %v", err)
	}
	if err := l.Declare(NewAsset("USDT", "Tether", Stable)); err != nil {
		t.Fatalf("Declare() failed: %v", err)
	}
	if err := l.Declare(NewAsset("BTC", "Bitcoin", Coin)); err != nil {
		t.Fatalf("Declare() failed: %v", err)
	}
	ids := mustRecord(t, l,
		NewBuy(day(1, 1), "", "USDT", Q(100), USD(1)),
		NewBuy(day(1, 2), "", "BTC", Q(0.001), USD(50000)).PaidWith("USDT", Q(0)),
	)
	note := "limit order"
	if _, err := l.Correct(ids[1], Correction{Note: &note, Reason: "annotate"}); err != nil {
		t.Fatalf("Correct() failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(content), "\n"); lines != 5 {
		t.Errorf("ledger file has %d lines, want 5 (2 declare, 2 buy, 1 correct):\n%s", lines, content)
	}

	reloaded, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want, got := l.All(), reloaded.All()
	if len(got) != len(want) {
		t.Fatalf("reloaded %d transactions, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("transaction %d:\n got %v\nwant %v", i, got[i], want[i])
		}
	}
	if tx, _ := reloaded.Transaction(ids[1]); tx.Note != note {
		t.Errorf("reloaded note = %q, want %q", tx.Note, note)
	}
	if n := len(reloaded.Corrections()); n != 1 {
		t.Errorf("reloaded %d corrections, want 1", n)
	}

	btc, err := store.Query("BTC")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(btc) != 1 || btc[0].PaymentSource != "USDT" {
		t.Errorf("Query(BTC) = %v", btc)
	}
}

func TestOpenLedger(t *testing.T) {
	store := NewMemoryStore()
	src := newTestLedger(t, WithStore(store))
	mustRecord(t, src,
		NewBuy(day(1, 1), "", "ETH", Q(2), USD(2000)),
		NewSell(day(1, 2), "", "ETH", Q(1), USD(2500)),
	)

	l, err := OpenLedger(store)
	if err != nil {
		t.Fatalf("OpenLedger() failed: %v", err)
	}
	if got := len(l.Assets()); got != 3 {
		t.Errorf("OpenLedger() loaded %d assets, want 3", got)
	}
	if got := len(l.ListByAsset("ETH")); got != 2 {
		t.Errorf("OpenLedger() loaded %d ETH transactions, want 2", got)
	}

	// writes after opening reach the store, the replayed ones are not duplicated.
	mustRecord(t, l, NewSell(day(1, 3), "", "ETH", Q(1), USD(2600)))
	all, _ := store.Query("")
	if len(all) != 3 {
		t.Errorf("store holds %d transactions, want 3", len(all))
	}
}
