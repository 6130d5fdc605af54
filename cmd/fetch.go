package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fetchCmd struct {
	assets string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "refresh current prices from the price feed" }
func (*fetchCmd) Usage() string {
	return `cfolio fetch [-a BTC,ETH]

  Fetches the current price of the declared assets from the configured feed
  and stores them in the quotes file. Assets without a configured JSONPath
  are skipped.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.assets, "a", "", "Comma separated assets to fetch, defaults to every declared asset")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	q, err := a.quotes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	var symbols []string
	if c.assets != "" {
		symbols = strings.Split(c.assets, ",")
	}
	if err := a.fetch(ctx, q, symbols...); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching prices: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Prices saved to %s\n", a.cfg.QuotesFile)
	return subcommands.ExitSuccess
}

// fetch updates q from the feed and saves it. Without symbols, every declared
// asset the feed can price is fetched.
func (a *app) fetch(ctx context.Context, q *cryptofolio.Quotes, symbols ...string) error {
	feed := a.feed()
	if feed == nil {
		return errors.New("no price feed configured")
	}
	if len(symbols) == 0 {
		known := feed.Symbols()
		for _, asset := range a.ledger.Assets() {
			if slices.Contains(known, asset.Symbol) {
				symbols = append(symbols, asset.Symbol)
			} else {
				a.log.Warn("no feed path for asset", zap.String("asset", asset.Symbol))
			}
		}
	}
	if len(symbols) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	// prices fetched before an error are kept.
	ferr := feed.Update(ctx, q, symbols...)
	if err := a.saveQuotes(q); err != nil {
		return err
	}
	return ferr
}

type quoteCmd struct {
	price string
	rate  string
	cur   string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "set a price or an exchange rate by hand" }
func (*quoteCmd) Usage() string {
	return `cfolio quote -price <asset>=<price> [-c <currency>]
cfolio quote -rate <from>/<to>=<rate>

  Stores a current price or an exchange rate in the quotes file.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "Price of an asset, e.g. BTC=60000")
	f.StringVar(&c.rate, "rate", "", "Exchange rate, e.g. USD/VND=25400")
	f.StringVar(&c.cur, "c", "USD", "Currency of the price")
}

func (c *quoteCmd) apply(q *cryptofolio.Quotes) error {
	if c.price != "" {
		symbol, value, ok := strings.Cut(c.price, "=")
		if !ok {
			return fmt.Errorf("invalid price %q, want <asset>=<price>", c.price)
		}
		price, err := cryptofolio.ParseMoney(value, c.cur)
		if err != nil {
			return err
		}
		if !price.IsPositive() {
			return fmt.Errorf("price must be positive, got %s", value)
		}
		q.SetPrice(symbol, price)
	}
	if c.rate != "" {
		pair, value, ok := strings.Cut(c.rate, "=")
		from, to, okPair := strings.Cut(pair, "/")
		if !ok || !okPair {
			return fmt.Errorf("invalid rate %q, want <from>/<to>=<rate>", c.rate)
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", value, err)
		}
		if !rate.IsPositive() {
			return fmt.Errorf("rate must be positive, got %s", value)
		}
		q.SetRate(from, to, rate)
	}
	return nil
}

func (c *quoteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.price == "" && c.rate == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	q, err := a.quotes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := c.apply(q); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	if err := a.saveQuotes(q); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving quotes: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
