package output

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/application/dto"
)

// table is one flat sheet of a report, written as a CSV file or an xlsx sheet
type table struct {
	file   string
	sheet  string
	header []string
	rows   [][]any
}

func buildTables(report *dto.ProductionReport) []table {
	orders := table{
		file:   "orders",
		sheet:  "Orders",
		header: []string{"number", "status", "branch", "description", "responsible", "open_date", "start_date", "close_date"},
	}
	items := table{
		file:   "items",
		sheet:  "Items",
		header: []string{"order", "part_number", "quantity", "produced", "lost", "remaining"},
	}
	materials := table{
		file:   "materials",
		sheet:  "Materials",
		header: []string{"order", "part_number", "needed", "allocated", "consumed", "lost", "stock_quantity"},
	}
	services := table{
		file:   "services",
		sheet:  "Services",
		header: []string{"order", "part_number", "quantity"},
	}
	history := table{
		file:   "history",
		sheet:  "History",
		header: []string{"order", "kind", "part_number", "quantity", "recorded_at"},
	}

	for _, o := range report.Orders {
		orders.rows = append(orders.rows, []any{
			o.Number, o.Status, string(o.Branch), o.Description, o.Responsible,
			o.OpenDate, o.StartDate, o.CloseDate,
		})
		for _, item := range o.Items {
			items.rows = append(items.rows, []any{
				o.Number, string(item.PartNumber), item.Quantity, item.Produced, item.Lost, item.Remaining,
			})
		}
		for _, m := range o.Materials {
			materials.rows = append(materials.rows, []any{
				o.Number, string(m.PartNumber), m.Needed, m.Allocated, m.Consumed, m.Lost, m.StockQuantity,
			})
		}
		for _, svc := range o.Services {
			services.rows = append(services.rows, []any{o.Number, string(svc.PartNumber), svc.Quantity})
		}
		for _, h := range o.History {
			history.rows = append(history.rows, []any{o.Number, h.Kind, string(h.PartNumber), h.Quantity, h.RecordedAt})
		}
	}

	balances := table{
		file:   "balances",
		sheet:  "Stock",
		header: []string{"part_number", "branch", "quantity"},
	}
	for _, b := range report.Balances {
		balances.rows = append(balances.rows, []any{string(b.PartNumber), string(b.BranchID), b.Quantity})
	}

	tables := []table{orders, items, materials, services, history, balances}
	if len(report.Failures) > 0 {
		failures := table{
			file:   "failures",
			sheet:  "Rejected",
			header: []string{"order_ref", "step", "action", "target", "error"},
		}
		for _, f := range report.Failures {
			failures.rows = append(failures.rows, []any{f.OrderRef, f.Step, f.Action, f.Target, f.Error})
		}
		tables = append(tables, failures)
	}
	return tables
}

func formatCell(v any) string {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2006-01-02")
	default:
		return fmt.Sprint(v)
	}
}
