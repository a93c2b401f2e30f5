package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/simaogato/shareledger/internal/domain"
	"github.com/simaogato/shareledger/internal/report"
)

// holdingsCmd implements the "holdings" command.
type holdingsCmd struct {
	status string
	plain  bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "lists recorded purchases" }
func (*holdingsCmd) Usage() string {
	return `ledgerctl holdings [-status active|sold]

  Lists holdings, newest purchase first.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.status, "status", "", "only list holdings with this status (active or sold)")
	f.BoolVar(&c.plain, "plain", false, "disable terminal styling")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	status := domain.HoldingStatus(strings.ToLower(c.status))
	if status != "" && status != domain.HoldingStatusActive && status != domain.HoldingStatusSold {
		fmt.Fprintf(os.Stderr, "Error: unknown status %q\n", c.status)
		return subcommands.ExitUsageError
	}

	err := withApp(ctx, func(a *app) error {
		holdings, err := a.ledger.ListHoldings(ctx, status)
		if err != nil {
			return err
		}
		return printMarkdown(holdingsTable(holdings), c.plain)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// soldCmd implements the "sold" command.
type soldCmd struct {
	plain bool
}

func (*soldCmd) Name() string     { return "sold" }
func (*soldCmd) Synopsis() string { return "lists sale events" }
func (*soldCmd) Usage() string {
	return `ledgerctl sold

  Lists every recorded sale with its purchase price, newest first.
`
}

func (c *soldCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "disable terminal styling")
}

func (c *soldCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	err := withApp(ctx, func(a *app) error {
		sold, err := a.ledger.ListSoldShares(ctx)
		if err != nil {
			return err
		}
		return printMarkdown(soldTable(sold), c.plain)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing sales: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func holdingsTable(holdings []*domain.Holding) string {
	if len(holdings) == 0 {
		return "_No holdings._\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Symbol | Quantity | Purchase price | Purchased | Status | Notes |\n")
	b.WriteString("|---:|:---|---:|---:|:---|:---|:---|\n")
	for _, h := range holdings {
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %s | %s | %s |\n",
			h.ID, h.Symbol, h.Quantity, h.PurchasePrice.StringFixed(2),
			h.PurchaseDate.Format(domain.DateLayout), h.Status, cell(h.Notes))
	}
	return b.String()
}

func soldTable(sold []*domain.SoldShareView) string {
	if len(sold) == 0 {
		return "_No sales._\n"
	}
	var b strings.Builder
	b.WriteString("| Holding | Symbol | Quantity | Sell price | Purchase price | Sold | Notes |\n")
	b.WriteString("|---:|:---|---:|---:|---:|:---|:---|\n")
	for _, s := range sold {
		fmt.Fprintf(&b, "| %d | %s | %d | %s | %s | %s | %s |\n",
			s.HoldingID, s.Symbol, s.Quantity, s.SellPrice.StringFixed(2), s.PurchasePrice.StringFixed(2),
			s.SellDate.Format(domain.DateLayout), cell(s.Notes))
	}
	return b.String()
}

// cell keeps free text from breaking a markdown table row
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func printMarkdown(md string, plain bool) error {
	out, err := report.Terminal(md, plain)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
