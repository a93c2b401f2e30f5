package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// searchCmd implements the "search" command.
type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches the quote provider for tickers" }
func (*searchCmd) Usage() string {
	return `ledgerctl search <search term>

  Lists equity tickers on the allowed exchanges that match the term.
`
}

func (*searchCmd) SetFlags(*flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	err := withApp(ctx, func(a *app) error {
		results := a.resolver.Search(ctx, term)
		if len(results) == 0 {
			fmt.Printf("No results found for '%s'.\n", term)
			return nil
		}
		for _, s := range results {
			fmt.Printf("%-12s %-6s %s\n", s.Symbol, s.Exchange, s.Name)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
