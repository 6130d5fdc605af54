package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptofolio"
	"github.com/google/subcommands"
)

type declareCmd struct {
	symbol string
	name   string
	class  string
}

func (*declareCmd) Name() string     { return "declare" }
func (*declareCmd) Synopsis() string { return "declare an asset before trading it" }
func (*declareCmd) Usage() string {
	return `cfolio declare -s <symbol> [-n <name>] [-class coin|stable]

  Declares an asset in the ledger. The class sets the precision of its
  quantities: 8 decimals for coins, 6 for stablecoins.
`
}

func (c *declareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Asset symbol, e.g. BTC")
	f.StringVar(&c.name, "n", "", "Asset display name")
	f.StringVar(&c.class, "class", "coin", "Precision class: coin or stable")
}

func (c *declareCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	class, err := cryptofolio.ParsePrecisionClass(c.class)
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

	if err := a.ledger.Declare(cryptofolio.NewAsset(c.symbol, c.name, class)); err != nil {
		fmt.Fprintf(os.Stderr, "Error declaring %s: %v\n", c.symbol, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Declared %s in %s\n", c.symbol, a.store.Path())
	return subcommands.ExitSuccess
}
