// Package cmd implements the cfolio command line application.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/config"
	"github.com/etnz/cryptofolio/logging"
	"github.com/etnz/cryptofolio/quotefeed"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&declareCmd{}, "ledger")
	c.Register(newBuyCmd(), "ledger")
	c.Register(newSellCmd(), "ledger")
	c.Register(&p2pCmd{}, "ledger")
	c.Register(&correctCmd{}, "ledger")
	c.Register(&logCmd{}, "ledger")
	c.Register(&formatCmd{}, "ledger")

	c.Register(&positionsCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&historyCmd{}, "reports")

	c.Register(&fetchCmd{}, "quotes")
	c.Register(&quoteCmd{}, "quotes")
	c.Register(&snapshotCmd{}, "snapshots")
	c.Register(&watchCmd{}, "snapshots")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", defaultConfigFile(), "Path to the cfolio configuration file (YAML)")

func defaultConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cfolio", "config.yaml")
	}
	return "cfolio.yaml"
}

// app is the state shared by the subcommands.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *cryptofolio.FileStore
	ledger *cryptofolio.Ledger
}

// openApp loads the configuration and the ledger.
func openApp() (*app, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	store := cryptofolio.NewFileStore(cfg.LedgerFile)
	ledger, err := store.Load(cryptofolio.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("cannot load ledger %q: %w", cfg.LedgerFile, err)
	}
	log.Debug("ledger loaded",
		zap.String("file", cfg.LedgerFile),
		zap.Int("assets", len(ledger.Assets())),
		zap.Int("transactions", len(ledger.All())),
	)
	return &app{cfg: cfg, log: log, store: store, ledger: ledger}, nil
}

func (a *app) close() { _ = a.log.Sync() }

func (a *app) policy(override string) (cryptofolio.RedeploymentPolicy, error) {
	if override != "" {
		return cryptofolio.ParseRedeploymentPolicy(override)
	}
	return a.cfg.RedeploymentPolicy()
}

func (a *app) currencies(override string) []string {
	if override == "" {
		return a.cfg.Currencies
	}
	return strings.Split(override, ",")
}

// quotes reads the quotes file. A missing file yields empty quotes.
func (a *app) quotes() (*cryptofolio.Quotes, error) {
	f, err := os.Open(a.cfg.QuotesFile)
	if errors.Is(err, fs.ErrNotExist) {
		a.log.Warn("quotes file does not exist, using empty quotes", zap.String("file", a.cfg.QuotesFile))
		return cryptofolio.NewQuotes(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	q, err := cryptofolio.DecodeQuotes(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode quotes %q: %w", a.cfg.QuotesFile, err)
	}
	return q, nil
}

func (a *app) saveQuotes(q *cryptofolio.Quotes) error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.QuotesFile), 0o755); err != nil {
		return err
	}
	f, err := os.Create(a.cfg.QuotesFile)
	if err != nil {
		return err
	}
	if err := cryptofolio.EncodeQuotes(f, q); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// feed returns the configured price feed, or nil when none is configured.
func (a *app) feed() *quotefeed.Feed {
	fc := a.cfg.Feed
	if fc.URL == "" {
		return nil
	}
	opts := []quotefeed.Option{quotefeed.WithLogger(a.log)}
	if fc.Lower {
		opts = append(opts, quotefeed.LowerCase())
	}
	return quotefeed.New(fc.URL, fc.Currency, fc.Paths, fc.CacheTTL, opts...)
}

// summarize values the portfolio as of asOf.
func (a *app) summarize(q *cryptofolio.Quotes, policy cryptofolio.RedeploymentPolicy, asOf time.Time, currencies []string) (*cryptofolio.PortfolioSummary, error) {
	as := cryptofolio.NewAccountingSystem(a.ledger, q, q, policy)
	return as.Summarize(asOf, currencies...)
}

// parseTime accepts a date, a date and time, or RFC 3339. Empty means now.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, want YYYY-MM-DD[ HH:MM] or RFC 3339", s)
}

// asOfTime parses a report date. A bare date means the end of that day.
func asOfTime(s string) (time.Time, error) {
	t, err := parseTime(s)
	if err != nil {
		return t, err
	}
	if len(s) == len("2006-01-02") {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}
