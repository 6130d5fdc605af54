package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptofolio"
	"github.com/google/subcommands"
)

type formatCmd struct{}

func (*formatCmd) Name() string     { return "format" }
func (*formatCmd) Synopsis() string { return "formats the ledger file into a canonical form" }
func (*formatCmd) Usage() string {
	return `cfolio format

  Rewrites the ledger file in canonical form: declarations first, then the
  transactions in the order they were recorded with their corrections.
`
}

func (*formatCmd) SetFlags(*flag.FlagSet) {}

func (*formatCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	// encode fully before truncating the file.
	var buf bytes.Buffer
	if err := cryptofolio.EncodeLedger(&buf, a.ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(a.store.Path(), buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Ledger file '%s' has been formatted.\n", a.store.Path())
	return subcommands.ExitSuccess
}
