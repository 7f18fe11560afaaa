package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/vsinha/production/pkg/domain/entities"
)

// StockCommand shows and receives on-hand stock
type StockCommand struct {
	app *App
}

func NewStockCommand(app *App) *StockCommand {
	return &StockCommand{app: app}
}

func (c *StockCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: production stock <show|receive> [flags]")
	}

	var product, branch, qty string
	fs := flag.NewFlagSet("stock "+args[0], flag.ContinueOnError)
	fs.SetOutput(c.app.Out)
	fs.StringVar(&product, "product", "", "Part number")
	fs.StringVar(&branch, "branch", "", "Branch (receive defaults to the configured store branch)")
	fs.StringVar(&qty, "qty", "", "Quantity to receive")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "show":
		balances, err := c.app.Service.ListBalances(ctx, entities.BranchID(branch))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "%-15s %-12s %12s\n", "Part Number", "Branch", "Quantity")
		for _, b := range balances {
			if product != "" && string(b.PartNumber) != product {
				continue
			}
			fmt.Fprintf(c.app.Out, "%-15s %-12s %12s\n", b.PartNumber, b.BranchID, b.Quantity)
		}
		return nil
	case "receive":
		if product == "" || qty == "" {
			return fmt.Errorf("stock receive: -product and -qty are required")
		}
		if branch == "" {
			branch = c.app.Config.Store.Branch
		}
		q, err := entities.ParseQuantity(qty)
		if err != nil {
			return err
		}
		pn, b := entities.PartNumber(product), entities.BranchID(branch)
		if err := c.app.Service.ReceiveStock(ctx, pn, b, q); err != nil {
			return err
		}
		balance, err := c.app.Service.Balance(ctx, pn, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Received %s of %s at %s, balance is %s\n", q, pn, b, balance)
		return nil
	default:
		return fmt.Errorf("unknown stock command: %s", args[0])
	}
}
