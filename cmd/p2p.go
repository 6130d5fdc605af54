package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptofolio"
	"github.com/google/subcommands"
)

type p2pCmd struct {
	sell         bool
	date         string
	asset        string
	quantity     string
	fiat         string
	currency     string
	rate         string
	platform     string
	counterparty string
	method       string
	note         string
}

func (*p2pCmd) Name() string     { return "p2p" }
func (*p2pCmd) Synopsis() string { return "record an off-exchange trade against fiat" }
func (*p2pCmd) Usage() string {
	return `cfolio p2p -a <asset> -q <quantity> -fiat <amount> -c <currency> [-rate <rate>] [-platform <name>] [-sell] [-d <date>]

  Records a peer-to-peer trade. The unit price is the fiat amount divided by
  the quantity. A quoted -rate is checked against it.
`
}

func (c *p2pCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.sell, "sell", false, "Record a sell instead of a buy")
	f.StringVar(&c.date, "d", "", "Transaction time (YYYY-MM-DD[ HH:MM]), defaults to now")
	f.StringVar(&c.asset, "a", "", "Asset symbol")
	f.StringVar(&c.quantity, "q", "", "Quantity of the asset")
	f.StringVar(&c.fiat, "fiat", "", "Total fiat amount")
	f.StringVar(&c.currency, "c", "", "Fiat currency")
	f.StringVar(&c.rate, "rate", "", "Quoted fiat per unit")
	f.StringVar(&c.platform, "platform", "", "Platform, e.g. Binance P2P")
	f.StringVar(&c.counterparty, "counterparty", "", "Counterparty")
	f.StringVar(&c.method, "method", "", "Payment method, e.g. bank transfer")
	f.StringVar(&c.note, "m", "", "An optional note")
}

func (c *p2pCmd) transaction() (cryptofolio.Transaction, error) {
	var tx cryptofolio.Transaction
	at, err := parseTime(c.date)
	if err != nil {
		return tx, err
	}
	q, err := cryptofolio.ParseQuantity(c.quantity)
	if err != nil {
		return tx, err
	}
	fiat, err := cryptofolio.ParseMoney(c.fiat, c.currency)
	if err != nil {
		return tx, err
	}
	details := cryptofolio.P2PDetails{
		FiatAmount:    fiat,
		Platform:      c.platform,
		Counterparty:  c.counterparty,
		PaymentMethod: c.method,
	}
	if c.rate != "" {
		if details.Rate, err = cryptofolio.ParseMoney(c.rate, c.currency); err != nil {
			return tx, err
		}
	}
	cmd := cryptofolio.CmdBuy
	if c.sell {
		cmd = cryptofolio.CmdSell
	}
	return cryptofolio.NewP2P(at, c.note, cmd, c.asset, q, details), nil
}

func (c *p2pCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" || c.quantity == "" || c.fiat == "" || c.currency == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction()
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

	id, err := a.ledger.Record(tx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s in %s\n", id, a.store.Path())
	if rate, ok := a.ledger.P2PAverageRate(c.asset, c.currency); ok {
		fmt.Printf("Average P2P rate for %s: %s\n", c.asset, rate)
	}
	return subcommands.ExitSuccess
}
