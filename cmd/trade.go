package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptofolio"
	"github.com/google/subcommands"
)

// tradeCmd records a buy or a sell.
type tradeCmd struct {
	command  cryptofolio.CommandType
	date     string
	asset    string
	quantity string
	price    string
	currency string
	fee      string
	with     string
	withQty  string
	note     string
}

func newBuyCmd() *tradeCmd  { return &tradeCmd{command: cryptofolio.CmdBuy} }
func newSellCmd() *tradeCmd { return &tradeCmd{command: cryptofolio.CmdSell} }

func (c *tradeCmd) Name() string { return string(c.command) }
func (c *tradeCmd) Synopsis() string {
	if c.command == cryptofolio.CmdSell {
		return "sell an asset for fiat"
	}
	return "buy an asset with fiat or with another asset"
}
func (c *tradeCmd) Usage() string {
	if c.command == cryptofolio.CmdSell {
		return `cfolio sell -a <asset> -q <quantity> -p <price> [-c <currency>] [-fee <fee>] [-d <date>] [-m <note>]

  Records a sell. The proceeds are the amount minus the fee.
`
	}
	return `cfolio buy -a <asset> -q <quantity> -p <price> [-c <currency>] [-fee <fee>] [-with <asset> [-wq <quantity>]] [-d <date>] [-m <note>]

  Records a buy. With -with, the buy is paid by spending another asset held in
  the portfolio instead of fiat. The spent quantity defaults to the amount when
  paying with a stablecoin.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Transaction time (YYYY-MM-DD[ HH:MM]), defaults to now")
	f.StringVar(&c.asset, "a", "", "Asset symbol")
	f.StringVar(&c.quantity, "q", "", "Quantity")
	f.StringVar(&c.price, "p", "", "Price per unit")
	f.StringVar(&c.currency, "c", "USD", "Currency of the price")
	f.StringVar(&c.fee, "fee", "", "Fee, in the price currency")
	f.StringVar(&c.note, "m", "", "An optional note")
	if c.command == cryptofolio.CmdBuy {
		f.StringVar(&c.with, "with", "", "Asset spent to pay for the buy")
		f.StringVar(&c.withQty, "wq", "", "Quantity of the asset spent")
	}
}

func (c *tradeCmd) transaction() (cryptofolio.Transaction, error) {
	var tx cryptofolio.Transaction
	at, err := parseTime(c.date)
	if err != nil {
		return tx, err
	}
	q, err := cryptofolio.ParseQuantity(c.quantity)
	if err != nil {
		return tx, err
	}
	price, err := cryptofolio.ParseMoney(c.price, c.currency)
	if err != nil {
		return tx, err
	}
	if c.command == cryptofolio.CmdSell {
		tx = cryptofolio.NewSell(at, c.note, c.asset, q, price)
	} else {
		tx = cryptofolio.NewBuy(at, c.note, c.asset, q, price)
	}
	if c.fee != "" {
		fee, err := cryptofolio.ParseMoney(c.fee, c.currency)
		if err != nil {
			return tx, err
		}
		tx = tx.WithFee(fee)
	}
	if c.with != "" {
		var wq cryptofolio.Quantity
		if c.withQty != "" {
			if wq, err = cryptofolio.ParseQuantity(c.withQty); err != nil {
				return tx, err
			}
		}
		tx = tx.PaidWith(c.with, wq)
	}
	return tx, nil
}

func (c *tradeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.asset == "" || c.quantity == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	tx, err := c.transaction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return record(tx)
}

// record appends tx to the ledger of the app.
func record(tx cryptofolio.Transaction) subcommands.ExitStatus {
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
	return subcommands.ExitSuccess
}
