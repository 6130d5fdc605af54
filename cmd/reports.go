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

type positionsCmd struct {
	date   string
	policy string
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "display the cost basis of every asset" }
func (*positionsCmd) Usage() string {
	return `cfolio positions [-d <date>] [-policy transfer|disposal]

  Displays holdings, weighted-average cost, invested and realized figures of
  every asset. No price is needed; under the disposal policy, exchange rates
  from the quotes file value payments made across currencies.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Report date, defaults to now")
	f.StringVar(&c.policy, "policy", "", "Accounting of cross-asset payments, defaults to the configured one")
}

func (c *positionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf, err := asOfTime(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	policy, err := a.policy(c.policy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	// rates are only needed to value disposals across currencies.
	q, err := a.quotes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	positions, err := cryptofolio.NewAccountingSystem(a.ledger, q, q, policy).Positions(asOf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing positions: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PositionsMarkdown(positions, policy))
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	date       string
	currencies string
	policy     string
	fetch      bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio totals in the display currencies" }
func (*summaryCmd) Usage() string {
	return `cfolio summary [-d <date>] [-c USD,VND] [-policy transfer|disposal] [-fetch]

  Values the portfolio at the known prices and displays its totals in each
  display currency. With -fetch, prices are first refreshed from the feed.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Report date, defaults to now")
	f.StringVar(&c.currencies, "c", "", "Comma separated display currencies, defaults to the configured ones")
	f.StringVar(&c.policy, "policy", "", "Accounting of cross-asset payments, defaults to the configured one")
	f.BoolVar(&c.fetch, "fetch", false, "Refresh prices from the feed first")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asOf, err := asOfTime(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	policy, err := a.policy(c.policy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	q, err := a.quotes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.fetch {
		if err := a.fetch(ctx, q); err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	s, err := a.summarize(q, policy, asOf, a.currencies(c.currencies))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing summary: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SummaryMarkdown(s))
	return subcommands.ExitSuccess
}
