package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/renderer"
	"github.com/google/subcommands"
)

type correctCmd struct {
	id       string
	reason   string
	date     string
	quantity string
	price    string
	fee      string
	with     string
	withQty  string
	note     string
}

func (*correctCmd) Name() string     { return "correct" }
func (*correctCmd) Synopsis() string { return "fix a recorded transaction, keeping an audit trail" }
func (*correctCmd) Usage() string {
	return `cfolio correct -id <id> -r <reason> [-d <date>] [-q <quantity>] [-p <price>] [-fee <fee>] [-with <asset>] [-wq <quantity>] [-m <note>]

  Corrects the fields of a recorded transaction. Only the flags given are
  changed. The correction is validated against the whole ledger and appended
  to the ledger file with its reason.
`
}

func (c *correctCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Id of the transaction to correct")
	f.StringVar(&c.reason, "r", "", "Reason of the correction")
	f.StringVar(&c.date, "d", "", "New transaction time")
	f.StringVar(&c.quantity, "q", "", "New quantity")
	f.StringVar(&c.price, "p", "", "New price per unit, in the transaction currency")
	f.StringVar(&c.fee, "fee", "", "New fee, in the transaction currency")
	f.StringVar(&c.with, "with", "", "New payment source, \"\" or a fiat code for fiat")
	f.StringVar(&c.withQty, "wq", "", "New payment quantity")
	f.StringVar(&c.note, "m", "", "New note")
}

// correction builds the correction from the flags that were set.
func (c *correctCmd) correction(f *flag.FlagSet, currency string) (cryptofolio.Correction, error) {
	corr := cryptofolio.Correction{Reason: c.reason}
	var err error
	f.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "d":
			var t time.Time
			if t, err = parseTime(c.date); err == nil {
				corr.Time = &t
			}
		case "q":
			var q cryptofolio.Quantity
			if q, err = cryptofolio.ParseQuantity(c.quantity); err == nil {
				corr.Quantity = &q
			}
		case "p":
			var m cryptofolio.Money
			if m, err = cryptofolio.ParseMoney(c.price, currency); err == nil {
				corr.Price = &m
			}
		case "fee":
			var m cryptofolio.Money
			if m, err = cryptofolio.ParseMoney(c.fee, currency); err == nil {
				corr.Fee = &m
			}
		case "with":
			corr.PaymentSource = &c.with
		case "wq":
			var q cryptofolio.Quantity
			if q, err = cryptofolio.ParseQuantity(c.withQty); err == nil {
				corr.PaymentQuantity = &q
			}
		case "m":
			corr.Note = &c.note
		}
	})
	return corr, err
}

func (c *correctCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" || c.reason == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	id := cryptofolio.TransactionID(c.id)
	tx, ok := a.ledger.Transaction(id)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no transaction %q in the ledger\n", c.id)
		return subcommands.ExitFailure
	}
	corr, err := c.correction(f, tx.Currency())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	after, err := a.ledger.Correct(id, corr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error correcting %s: %v\n", c.id, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Corrected %s: %s\n", c.id, renderer.Transaction(after))
	return subcommands.ExitSuccess
}
