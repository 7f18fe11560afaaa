package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsinha/production/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Writer receives text output and JSON when no OutputDir is set.
	// Defaults to os.Stdout.
	Writer io.Writer
}

func (c Config) out() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// Generate creates output in the specified format
func Generate(report *dto.ProductionReport, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, config)
	case "csv":
		return generateCSVOutput(report, config)
	case "xlsx":
		return generateXLSXOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *dto.ProductionReport, config Config) error {
	w := config.out()

	fmt.Fprintf(w, "Production Summary\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Orders: %d\n", len(report.Orders))
	fmt.Fprintf(w, "Rejected actions: %d\n", len(report.Failures))
	fmt.Fprintf(w, "Elapsed: %v\n\n", report.Elapsed)

	for _, order := range report.Orders {
		WriteOrder(w, order)
	}

	if len(report.Balances) > 0 {
		fmt.Fprintf(w, "Stock Balances:\n")
		fmt.Fprintf(w, "%-15s %-12s %12s\n", "Part Number", "Branch", "Quantity")
		fmt.Fprintf(w, "%-15s %-12s %12s\n", dashes(15), dashes(12), dashes(12))
		for _, b := range report.Balances {
			fmt.Fprintf(w, "%-15s %-12s %12s\n", b.PartNumber, b.BranchID, b.Quantity)
		}
		fmt.Fprintln(w)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(w, "Rejected Actions:\n")
		for _, f := range report.Failures {
			fmt.Fprintf(w, "  %s step %d %s %s: %s\n", f.OrderRef, f.Step, f.Action, f.Target, f.Error)
		}
		fmt.Fprintln(w)
	}

	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		var sb strings.Builder
		for _, order := range report.Orders {
			WriteOrder(&sb, order)
		}
		filename := filepath.Join(config.OutputDir, "production_report.txt")
		if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
			return fmt.Errorf("failed to write text file: %w", err)
		}
		if config.Verbose {
			fmt.Fprintf(w, "Results saved to: %s\n", filename)
		}
	}

	return nil
}

// WriteOrder prints one order with its lines
func WriteOrder(w io.Writer, order *dto.OrderReport) {
	fmt.Fprintf(w, "Order %s [%s] %s  branch %s\n", order.Number, order.Status, order.Description, order.Branch)
	if order.Responsible != "" {
		fmt.Fprintf(w, "  Responsible: %s\n", order.Responsible)
	}

	if len(order.Items) > 0 {
		fmt.Fprintf(w, "  %-15s %10s %10s %10s %10s\n", "Item", "Quantity", "Produced", "Lost", "Remaining")
		for _, item := range order.Items {
			fmt.Fprintf(w, "  %-15s %10s %10s %10s %10s\n",
				item.PartNumber, item.Quantity, item.Produced, item.Lost, item.Remaining)
		}
	}

	if len(order.Materials) > 0 {
		fmt.Fprintf(w, "  %-15s %10s %10s %10s %10s %10s\n", "Material", "Needed", "Allocated", "Consumed", "Lost", "Stock")
		for _, m := range order.Materials {
			fmt.Fprintf(w, "  %-15s %10s %10s %10s %10s %10s\n",
				m.PartNumber, m.Needed, m.Allocated, m.Consumed, m.Lost, m.StockQuantity)
		}
	}

	if len(order.Services) > 0 {
		fmt.Fprintf(w, "  %-15s %10s\n", "Service", "Quantity")
		for _, svc := range order.Services {
			fmt.Fprintf(w, "  %-15s %10s\n", svc.PartNumber, svc.Quantity)
		}
	}

	for _, h := range order.History {
		fmt.Fprintf(w, "  %s %-9s %-15s %s\n", h.RecordedAt.Format("2006-01-02 15:04"), h.Kind, h.PartNumber, h.Quantity)
	}
	fmt.Fprintln(w)
}

func dashes(n int) string {
	return strings.Repeat("-", n)
}

// generateJSONOutput creates JSON output
func generateJSONOutput(report *dto.ProductionReport, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.out(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "production_report.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per report table
func generateCSVOutput(report *dto.ProductionReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, t := range buildTables(report) {
		filename := filepath.Join(config.OutputDir, t.file+".csv")
		if err := writeTableCSV(t, filename); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", t.file, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.out(), "CSV saved to: %s\n", filename)
		}
	}
	return nil
}

func writeTableCSV(t table, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.header); err != nil {
		return err
	}
	for _, row := range t.rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
