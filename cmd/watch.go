package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/snapshots"
	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type watchCmd struct {
	schedule string
	fetch    bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "take snapshots on a schedule" }
func (*watchCmd) Usage() string {
	return `cfolio watch [-schedule <cron spec>] [-fetch=false]

  Runs until interrupted, taking a snapshot of the portfolio on every tick of
  the schedule. Prices are refreshed from the feed before each snapshot when a
  feed is configured.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.schedule, "schedule", "", "Cron spec, e.g. \"@hourly\" or \"0 20 * * *\"; defaults to the configured one")
	f.BoolVar(&c.fetch, "fetch", true, "Refresh prices before each snapshot")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.close()

	schedule := c.schedule
	if schedule == "" {
		schedule = a.cfg.SnapshotSchedule
	}
	fetch := c.fetch && a.feed() != nil

	store, err := snapshots.NewWALStore(a.cfg.SnapshotDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = sched.AddFunc(schedule, func() {
		// the ledger may have changed since the last tick.
		ledger, err := a.store.Load(cryptofolio.WithLogger(a.log))
		if err != nil {
			a.log.Error("reload ledger", zap.Error(err))
			return
		}
		a.ledger = ledger
		if _, err := a.snapshot(ctx, store, fetch); err != nil {
			a.log.Error("snapshot", zap.Error(err))
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing schedule %q: %v\n", schedule, err)
		return subcommands.ExitUsageError
	}

	a.log.Info("watching", zap.String("schedule", schedule), zap.Bool("fetch", fetch))
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	a.log.Info("stopped")
	return subcommands.ExitSuccess
}
