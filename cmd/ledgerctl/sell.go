package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/simaogato/shareledger/internal/domain"
)

// sellCmd implements the "sell" command.
type sellCmd struct {
	id, quantity, price, notes string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "records a sale against a holding" }
func (*sellCmd) Usage() string {
	return `ledgerctl sell -id <holding> -qty <shares> -price <sell price> [-notes <text>]

  Sells part or all of an active holding at today's date. Selling every
  remaining share marks the holding as sold.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "holding id")
	f.StringVar(&c.quantity, "qty", "", "number of shares to sell")
	f.StringVar(&c.price, "price", "", "sell price per share")
	f.StringVar(&c.notes, "notes", "", "optional notes")
}

func (c *sellCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := domain.ParseSaleRequest(c.id, c.quantity, c.price, c.notes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	err = withApp(ctx, func(a *app) error {
		result, err := a.ledger.Sell(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Sold %d shares of holding %d at %s on %s\n",
			result.Quantity, result.HoldingID, result.SellPrice.StringFixed(2), result.SellDate.Format(domain.DateLayout))
		fmt.Printf("Remaining: %d (%s)\n", result.RemainingQuantity, result.Status)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording sale: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
