package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/renderer"
	"github.com/google/subcommands"
)

type logCmd struct {
	asset string
	date  string
	tail  int
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the transactions and corrections of the ledger" }
func (*logCmd) Usage() string {
	return `cfolio log [-a <asset>] [-d <date>] [-tail <n>]

  Lists the transactions in chronological order, followed by the audit trail
  of corrections.
`
}

func (c *logCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "", "Only list the transactions involving this asset")
	f.StringVar(&c.date, "d", "", "Only list the transactions up to this date")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions")
}

func (c *logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var filters []func(cryptofolio.Transaction) bool
	if c.asset != "" {
		filters = append(filters, cryptofolio.Involving(c.asset))
	}
	if c.date != "" {
		until, err := asOfTime(c.date)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		filters = append(filters, cryptofolio.Until(until))
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	var txs []cryptofolio.Transaction
	for _, tx := range a.ledger.Transactions(filters...) {
		txs = append(txs, tx)
	}
	if c.tail > 0 && len(txs) > c.tail {
		txs = txs[len(txs)-c.tail:]
	}
	printMarkdown(renderer.LogMarkdown(txs, a.ledger.Corrections()))
	return subcommands.ExitSuccess
}
