package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/etnz/cryptofolio/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "read the cfolio user manual" }
func (*topicCmd) Usage() string {
	return `cfolio topic [-list] [all | <topic>...]

  Prints manual topics: the ledger file, cross-asset payments, P2P trades,
  configuration and snapshots. Without a topic, prints the manual index;
  "all" prints every topic.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "List the topic names only")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	available, err := docs.GetAllTopics()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading the manual: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.list {
		fmt.Println(strings.Join(available, "\n"))
		return subcommands.ExitSuccess
	}

	doc, err := manual(available, f.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}

// manual returns the requested topics, the index when none is requested.
func manual(available, requested []string) (string, error) {
	switch {
	case len(requested) == 0:
		requested = []string{"readme"}
	case len(requested) == 1 && requested[0] == "all":
		requested = []string{"*"}
	}
	for _, t := range requested {
		if t != "readme" && t != "*" && !slices.Contains(available, t) {
			return "", fmt.Errorf("unknown topic %q, available topics: %s", t, strings.Join(available, ", "))
		}
	}
	return docs.GetTopics(requested...)
}
