package commands

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/application/services/production"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
	"github.com/vsinha/production/pkg/interfaces/cli/output"
)

// OrderCommand manages production orders in the configured store. Orders
// are addressed by number and their lines by part number.
type OrderCommand struct {
	app *App
}

func NewOrderCommand(app *App) *OrderCommand {
	return &OrderCommand{app: app}
}

type orderFlags struct {
	number        int64
	product       string
	qty           string
	branch        string
	description   string
	responsible   string
	expectedStart string
	status        string
	history       bool
}

func (f *orderFlags) quantity() (*decimal.Decimal, error) {
	if f.qty == "" {
		return nil, nil
	}
	q, err := entities.ParseQuantity(f.qty)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// quantityOr is the -qty value, or def when it was not given
func (f *orderFlags) quantityOr(def decimal.Decimal) (decimal.Decimal, error) {
	q, err := f.quantity()
	if err != nil || q == nil {
		return def, err
	}
	return *q, nil
}

func (c *OrderCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: production order <create|show|list|items|add-item|add-material|add-service|remove-item|remove-service|plan|wait|start|allocate|consume|lose-material|produce|lose|finalize|delete> [flags]")
	}
	sub := args[0]

	var f orderFlags
	fs := flag.NewFlagSet("order "+sub, flag.ContinueOnError)
	fs.SetOutput(c.app.Out)
	fs.Int64Var(&f.number, "order", 0, "Order number")
	fs.StringVar(&f.product, "product", "", "Part number of the item, material or service")
	fs.StringVar(&f.qty, "qty", "", "Quantity")
	fs.StringVar(&f.branch, "branch", "", "Branch (create defaults to the configured store branch)")
	fs.StringVar(&f.description, "description", "", "Order description")
	fs.StringVar(&f.responsible, "responsible", "", "Responsible employee")
	fs.StringVar(&f.expectedStart, "expected-start", "", "Expected start date (YYYY-MM-DD)")
	fs.StringVar(&f.status, "status", "", "Filter by status")
	fs.BoolVar(&f.history, "history", false, "Include movement history")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch sub {
	case "create":
		return c.create(ctx, &f)
	case "list":
		return c.list(ctx, &f)
	}

	if f.number <= 0 {
		return fmt.Errorf("order %s: -order is required", sub)
	}
	order, err := c.app.Service.GetOrderByNumber(ctx, f.number)
	if err != nil {
		return err
	}
	svc := c.app.Service
	pn := entities.PartNumber(f.product)

	switch sub {
	case "show":
		return c.show(ctx, order.ID, f.history)
	case "items":
		for _, item := range order.Items {
			fmt.Fprintf(c.app.Out, "%-15s %10s %10s %10s\n", item.PartNumber, item.Quantity, item.Produced, item.Lost)
		}
		return nil
	case "delete":
		if err := svc.DeleteOrder(ctx, order.ID); err != nil {
			return err
		}
		fmt.Fprintf(c.app.Out, "Deleted order %s\n", order.OrderNumber())
		return nil
	case "add-item", "add-material", "add-service":
		if pn == "" {
			return fmt.Errorf("order %s: -product is required", sub)
		}
		q, err := f.quantityOr(decimal.NewFromInt(1))
		if err != nil {
			return err
		}
		switch sub {
		case "add-item":
			_, err = svc.AddItem(ctx, order.ID, pn, q)
		case "add-material":
			_, err = svc.AddMaterial(ctx, order.ID, pn, q)
		default:
			_, err = svc.AddService(ctx, order.ID, pn, q)
		}
		if err != nil {
			return err
		}
	case "remove-item":
		item, err := findItem(order, pn)
		if err != nil {
			return err
		}
		if err := svc.RemoveItem(ctx, order.ID, item.ID); err != nil {
			return err
		}
	case "remove-service":
		service, err := findService(order, pn)
		if err != nil {
			return err
		}
		if err := svc.RemoveService(ctx, order.ID, service.ID); err != nil {
			return err
		}
	case ActionPlan, ActionWait, ActionStart, ActionFinalize,
		ActionAllocate, ActionConsume, ActionLoseMaterial, ActionProduce, ActionLose:
		q, err := f.quantity()
		if err != nil {
			return err
		}
		if err := applyAction(ctx, svc, order.ID, sub, pn, q); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown order command: %s", sub)
	}

	return c.show(ctx, order.ID, false)
}

func (c *OrderCommand) create(ctx context.Context, f *orderFlags) error {
	branch := f.branch
	if branch == "" {
		branch = c.app.Config.Store.Branch
	}
	req := production.OrderRequest{
		Branch:      entities.BranchID(branch),
		Description: f.description,
		Responsible: f.responsible,
	}
	if f.expectedStart != "" {
		date, err := time.Parse("2006-01-02", f.expectedStart)
		if err != nil {
			return fmt.Errorf("invalid expected start date: %w", err)
		}
		req.ExpectedStartDate = &date
	}
	order, err := c.app.Service.CreateOrder(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.Out, "Created order %s (%s)\n", order.OrderNumber(), order.ID)
	return nil
}

func (c *OrderCommand) list(ctx context.Context, f *orderFlags) error {
	var filter repositories.OrderFilter
	if f.status != "" {
		status, err := entities.ParseOrderStatus(f.status)
		if err != nil {
			return err
		}
		filter.Status = &status
	}
	if f.branch != "" {
		filter.Branch = entities.BranchID(f.branch)
	}

	orders, err := c.app.Service.ListOrders(ctx, filter)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.Out, "%-6s %-10s %-12s %-12s %s\n", "Number", "Status", "Branch", "Opened", "Description")
	for _, o := range orders {
		fmt.Fprintf(c.app.Out, "%-6s %-10s %-12s %-12s %s\n",
			o.OrderNumber(), o.StatusString(), o.BranchID, o.OpenDate.Format("2006-01-02"), o.Description)
	}
	return nil
}

func (c *OrderCommand) show(ctx context.Context, orderID uuid.UUID, history bool) error {
	report, err := c.app.Service.OrderReport(ctx, orderID, history)
	if err != nil {
		return err
	}
	output.WriteOrder(c.app.Out, report)
	return nil
}
