package cmd

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/snapshots"
	"github.com/google/subcommands"
)

// useTempConfig points the app to a missing config file in a temporary
// directory, so that every file defaults into that directory.
func useTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, env := range []string{"CFOLIO_LEDGER_FILE", "CFOLIO_QUOTES_FILE", "CFOLIO_SNAPSHOT_DIR", "CFOLIO_POLICY", "CFOLIO_CURRENCIES"} {
		t.Setenv(env, "")
	}
	t.Setenv("CFOLIO_LOG_LEVEL", "error")
	old := *configFile
	*configFile = filepath.Join(dir, "config.yaml")
	t.Cleanup(func() { *configFile = old })
	return dir
}

// run parses args for cmd and executes it.
func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatalf("%s: cannot parse %v: %v", cmd.Name(), args, err)
	}
	return cmd.Execute(context.Background(), f)
}

func TestFormat(t *testing.T) {
	dir := useTempConfig(t)
	original := `{"command":"declare","symbol":"ETH","class":"coin"}
{"command":"buy","id":"a","time":"2025-01-02T00:00:00Z","asset":"ETH","quantity":1,"price":100,"currency":"USD"}
{"command":"declare","symbol":"BTC","class":"coin"}
`
	expected := `{"command":"declare","symbol":"BTC","class":"coin"}
{"command":"declare","symbol":"ETH","class":"coin"}
{"command":"buy","id":"a","time":"2025-01-02T00:00:00Z","asset":"ETH","quantity":1,"price":100,"currency":"USD"}
`
	ledgerFile := filepath.Join(dir, "ledger.jsonl")
	if err := os.WriteFile(ledgerFile, []byte(original), 0o644); err != nil {
		t.Fatalf("cannot write ledger: %v", err)
	}

	if status := run(t, &formatCmd{}); status != subcommands.ExitSuccess {
		t.Fatalf("format returned %v", status)
	}
	got, err := os.ReadFile(ledgerFile)
	if err != nil {
		t.Fatalf("cannot read ledger: %v", err)
	}
	if string(got) != expected {
		t.Errorf("formatted ledger =\n%s\nwant\n%s", got, expected)
	}
}

func TestWorkflow(t *testing.T) {
	dir := useTempConfig(t)

	steps := []struct {
		cmd  subcommands.Command
		args []string
		want subcommands.ExitStatus
	}{
		{&declareCmd{}, []string{"-s", "USDT", "-class", "stable"}, subcommands.ExitSuccess},
		{&declareCmd{}, []string{"-s", "BTC"}, subcommands.ExitSuccess},
		{&declareCmd{}, []string{"-s", "BTC"}, subcommands.ExitFailure},
		{&declareCmd{}, []string{"-s", "ETH", "-class", "token"}, subcommands.ExitUsageError},
		{&p2pCmd{}, []string{"-d", "2025-01-01", "-a", "USDT", "-q", "100", "-fiat", "100", "-c", "USD", "-platform", "Binance P2P"}, subcommands.ExitSuccess},
		{newBuyCmd(), []string{"-d", "2025-01-02", "-a", "BTC", "-q", "0.001", "-p", "50000", "-with", "USDT"}, subcommands.ExitSuccess},
		{newSellCmd(), []string{"-d", "2025-01-03", "-a", "BTC", "-q", "1", "-p", "50000"}, subcommands.ExitFailure},
		{newSellCmd(), []string{"-a", "BTC"}, subcommands.ExitUsageError},
		{&quoteCmd{}, []string{"-price", "BTC=60000"}, subcommands.ExitSuccess},
		{&quoteCmd{}, []string{"-price", "USDT=1"}, subcommands.ExitSuccess},
		{&quoteCmd{}, []string{"-rate", "USD/EUR=0"}, subcommands.ExitUsageError},
		{&positionsCmd{}, nil, subcommands.ExitSuccess},
		{&summaryCmd{}, []string{"-c", "USD"}, subcommands.ExitSuccess},
		{&summaryCmd{}, []string{"-c", "EUR"}, subcommands.ExitFailure},
		{&snapshotCmd{}, nil, subcommands.ExitSuccess},
		{&historyCmd{}, nil, subcommands.ExitSuccess},
		{&logCmd{}, []string{"-a", "USDT"}, subcommands.ExitSuccess},
		{&fetchCmd{}, nil, subcommands.ExitFailure},
	}
	for _, s := range steps {
		if got := run(t, s.cmd, s.args...); got != s.want {
			t.Fatalf("%s %v returned %v, want %v", s.cmd.Name(), s.args, got, s.want)
		}
	}

	f, err := os.Open(filepath.Join(dir, "ledger.jsonl"))
	if err != nil {
		t.Fatalf("cannot open ledger: %v", err)
	}
	defer f.Close()
	l, err := cryptofolio.DecodeLedger(f)
	if err != nil {
		t.Fatalf("DecodeLedger() failed: %v", err)
	}
	txs := l.All()
	if len(txs) != 2 {
		t.Fatalf("ledger has %d transactions, want 2", len(txs))
	}
	if got := txs[1].PaymentQuantity; !got.Equal(cryptofolio.Q(50)) {
		t.Errorf("derived payment quantity = %s, want 50", got)
	}

	store, err := snapshots.NewWALStore(filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatalf("NewWALStore() failed: %v", err)
	}
	defer store.Close()
	latest, ok, err := store.Latest()
	if err != nil || !ok {
		t.Fatalf("Latest() = %v, %v", ok, err)
	}
	if tot, _ := latest.Snapshot.In("USD"); !tot.TotalValue.Equal(cryptofolio.M(110, "USD")) {
		t.Errorf("snapshot TotalValue = %v, want 110", tot.TotalValue)
	}
}

func TestCorrectCmd(t *testing.T) {
	useTempConfig(t)
	if status := run(t, &declareCmd{}, "-s", "BTC"); status != subcommands.ExitSuccess {
		t.Fatalf("declare returned %v", status)
	}
	if status := run(t, newBuyCmd(), "-d", "2025-01-02", "-a", "BTC", "-q", "1", "-p", "100"); status != subcommands.ExitSuccess {
		t.Fatalf("buy returned %v", status)
	}
	a, err := openApp()
	if err != nil {
		t.Fatalf("openApp() failed: %v", err)
	}
	id := string(a.ledger.All()[0].ID)

	if status := run(t, &correctCmd{}, "-id", id, "-p", "120"); status != subcommands.ExitUsageError {
		t.Errorf("correct without reason returned %v", status)
	}
	if status := run(t, &correctCmd{}, "-id", id, "-r", "wrong price", "-p", "120", "-m", "fixed"); status != subcommands.ExitSuccess {
		t.Fatalf("correct returned %v", status)
	}

	a, err = openApp()
	if err != nil {
		t.Fatalf("openApp() failed: %v", err)
	}
	tx := a.ledger.All()[0]
	if !tx.Price.Equal(cryptofolio.M(120, "USD")) || tx.Note != "fixed" {
		t.Errorf("corrected transaction = %v %q", tx, tx.Note)
	}
	if !tx.Quantity.Equal(cryptofolio.Q(1)) {
		t.Errorf("quantity changed to %s", tx.Quantity)
	}
	if n := len(a.ledger.Corrections()); n != 1 {
		t.Errorf("ledger has %d corrections, want 1", n)
	}
}

func TestCorrectCmd_DerivedPayment(t *testing.T) {
	useTempConfig(t)
	steps := [][]string{
		{"declare", "-s", "BTC"},
		{"declare", "-s", "USDT", "-class", "stable"},
		{"buy", "-d", "2025-01-01", "-a", "USDT", "-q", "1000", "-p", "1"},
		{"buy", "-d", "2025-01-02", "-a", "BTC", "-q", "0.001", "-p", "50000", "-with", "USDT"},
	}
	for _, step := range steps {
		var cmd subcommands.Command = &declareCmd{}
		if step[0] == "buy" {
			cmd = newBuyCmd()
		}
		if status := run(t, cmd, step[1:]...); status != subcommands.ExitSuccess {
			t.Fatalf("%v returned %v", step, status)
		}
	}
	a, err := openApp()
	if err != nil {
		t.Fatalf("openApp() failed: %v", err)
	}
	id := string(a.ledger.All()[1].ID)
	if status := run(t, &correctCmd{}, "-id", id, "-r", "partial fill", "-q", "0.002"); status != subcommands.ExitSuccess {
		t.Fatalf("correct returned %v", status)
	}

	// reloaded from the ledger file.
	a, err = openApp()
	if err != nil {
		t.Fatalf("openApp() failed: %v", err)
	}
	tx := a.ledger.All()[1]
	if want := cryptofolio.Q(100); !tx.PaymentQuantity.Equal(want) || !tx.PaymentDerived() {
		t.Errorf("PaymentQuantity = %s (derived %v), want %s derived", tx.PaymentQuantity, tx.PaymentDerived(), want)
	}
}

func TestManual(t *testing.T) {
	available := []string{"config", "ledger", "p2p"}
	testCases := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{nil, "# cfolio user manual", false},
		{[]string{"p2p"}, "jsonl ledger", false},
		{[]string{"all"}, "jsonl ledger", false},
		{[]string{"nope"}, "", true},
	}
	for _, tc := range testCases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			got, err := manual(available, tc.args)
			if tc.wantErr {
				if err == nil || !strings.Contains(err.Error(), "config, ledger, p2p") {
					t.Errorf("manual(%v) error = %v, want the available topics", tc.args, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("manual(%v) failed: %v", tc.args, err)
			}
			if !strings.Contains(got, tc.want) {
				t.Errorf("manual(%v) does not contain %q", tc.args, tc.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	testCases := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-04", time.Date(2025, 3, 4, 0, 0, 0, 0, time.Local)},
		{"2025-03-04 10:30", time.Date(2025, 3, 4, 10, 30, 0, 0, time.Local)},
		{"2025-03-04T10:30:00Z", time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseTime(tc.in)
			if err != nil {
				t.Fatalf("parseTime(%q) failed: %v", tc.in, err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
	if _, err := parseTime("yesterday"); err == nil {
		t.Error("parseTime(yesterday) succeeded")
	}

	end, err := asOfTime("2025-03-04")
	if err != nil {
		t.Fatalf("asOfTime() failed: %v", err)
	}
	if want := time.Date(2025, 3, 5, 0, 0, 0, 0, time.Local).Add(-time.Nanosecond); !end.Equal(want) {
		t.Errorf("asOfTime(2025-03-04) = %v, want %v", end, want)
	}
}
