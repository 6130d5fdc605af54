package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/renderer"
	"github.com/etnz/cryptofolio/snapshots"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

type snapshotCmd struct {
	fetch bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record the current portfolio state in the history" }
func (*snapshotCmd) Usage() string {
	return `cfolio snapshot [-fetch]

  Values the portfolio now in every display currency and appends the result
  to the snapshot history.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.fetch, "fetch", false, "Refresh prices from the feed first")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	store, err := snapshots.NewWALStore(a.cfg.SnapshotDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	index, err := a.snapshot(ctx, store, c.fetch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error taking snapshot: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Snapshot #%d saved to %s\n", index, a.cfg.SnapshotDir)
	return subcommands.ExitSuccess
}

// snapshot values the portfolio now and appends it to store.
func (a *app) snapshot(ctx context.Context, store *snapshots.WALStore, fetch bool) (uint64, error) {
	policy, err := a.cfg.RedeploymentPolicy()
	if err != nil {
		return 0, err
	}
	q, err := a.quotes()
	if err != nil {
		return 0, err
	}
	if fetch {
		if err := a.fetch(ctx, q); err != nil {
			return 0, err
		}
	}
	now := time.Now()
	s, err := a.summarize(q, policy, now, a.cfg.Currencies)
	if err != nil {
		return 0, err
	}
	index, err := store.Append(cryptofolio.NewPortfolioSnapshot(s, now))
	if err != nil {
		return 0, err
	}
	a.log.Info("snapshot taken", zap.Uint64("index", index), zap.Int("assets", len(s.Assets)))
	return index, nil
}

type historyCmd struct {
	currency string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the portfolio value over time" }
func (*historyCmd) Usage() string {
	return `cfolio history [-c <currency>]

  Displays the value, net invested capital and unrealized P&L of every
  snapshot taken in a display currency.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Display currency, defaults to the first configured one")
}

func (c *historyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	currency := c.currency
	if currency == "" {
		currency = a.cfg.Currencies[0]
	}
	store, err := snapshots.NewWALStore(a.cfg.SnapshotDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	records, err := store.All()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading snapshots: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.HistoryMarkdown(snapshots.Series(records, currency), currency))
	return subcommands.ExitSuccess
}
