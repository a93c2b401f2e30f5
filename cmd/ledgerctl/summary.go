package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/simaogato/shareledger/internal/report"
)

// summaryCmd implements the "summary" command.
type summaryCmd struct {
	live     bool
	plain    bool
	currency string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "prints the portfolio valuation report" }
func (*summaryCmd) Usage() string {
	return `ledgerctl summary [-live] [-plain] [-currency USD]

  Values active holdings and summarises realized gains. Without -live,
  only the cost basis and realized figures are shown.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.live, "live", false, "fetch current prices from the quote provider")
	f.BoolVar(&c.plain, "plain", false, "disable terminal styling")
	f.StringVar(&c.currency, "currency", "", "currency used to format amounts (defaults to the configured one)")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	err := withApp(ctx, func(a *app) error {
		if c.live {
			a.portfolio.Prices = a.prices
		}
		summary, err := a.portfolio.Summary(ctx)
		if err != nil {
			return err
		}

		currency := c.currency
		if currency == "" {
			currency = a.cfg.Currency
		}
		md, err := report.SummaryMarkdown(summary, currency, time.Now())
		if err != nil {
			return err
		}
		return printMarkdown(md, c.plain)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building summary: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
