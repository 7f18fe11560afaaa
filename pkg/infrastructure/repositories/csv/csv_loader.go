package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/domain/entities"
)

// File names LoadScenario looks for in a scenario directory
const (
	ProductsFile = "products.csv"
	BOMFile      = "bom.csv"
	StockFile    = "stock.csv"
	OrdersFile   = "orders.csv"
	ActionsFile  = "actions.csv"
)

// LineType says which kind of order line an orders.csv row declares
type LineType string

const (
	ItemLine     LineType = "item"
	MaterialLine LineType = "material"
	ServiceLine  LineType = "service"
)

// StockRow is an opening balance
type StockRow struct {
	PartNumber entities.PartNumber
	Branch     entities.BranchID
	Quantity   decimal.Decimal
}

// OrderLineRow declares one line of an order. Rows sharing a Ref belong to
// the same order; the first one's branch and description are used.
type OrderLineRow struct {
	Ref         string
	Branch      entities.BranchID
	Description string
	LineType    LineType
	PartNumber  entities.PartNumber
	Quantity    decimal.Decimal
}

// ActionRow is one step to run against an order. Target is the part number
// of the item or material the action applies to, empty for order level
// actions. A nil Quantity lets allocate take whatever is available.
type ActionRow struct {
	Ref      string
	Action   string
	Target   entities.PartNumber
	Quantity *decimal.Decimal
}

// Scenario is everything a scenario directory describes
type Scenario struct {
	Products []*entities.Product
	BOMLines []*entities.BOMLine
	Stock    []StockRow
	Orders   []OrderLineRow
	Actions  []ActionRow
}

// Loader handles loading production data from CSV files
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads products.csv, bom.csv, stock.csv and orders.csv from
// dir. bom.csv, stock.csv, orders.csv and actions.csv may be missing.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	var (
		scenario Scenario
		err      error
	)
	if scenario.Products, err = l.LoadProducts(filepath.Join(dir, ProductsFile)); err != nil {
		return nil, err
	}
	if scenario.BOMLines, err = optional(l.LoadBOM(filepath.Join(dir, BOMFile))); err != nil {
		return nil, err
	}
	if scenario.Stock, err = optional(l.LoadStock(filepath.Join(dir, StockFile))); err != nil {
		return nil, err
	}
	if scenario.Orders, err = optional(l.LoadOrders(filepath.Join(dir, OrdersFile))); err != nil {
		return nil, err
	}
	if scenario.Actions, err = optional(l.LoadActions(filepath.Join(dir, ActionsFile))); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func optional[T any](rows []T, err error) ([]T, error) {
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	header := []string{"part_number", "description", "kind", "unit_of_measure"}
	records, err := readCSV(filename, "products", header)
	if err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records {
		kind, err := entities.ParseProductKind(record[2])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		product, err := entities.NewProduct(entities.PartNumber(record[0]), record[1], kind, record[3])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadBOM loads BOM lines from a CSV file
func (l *Loader) LoadBOM(filename string) ([]*entities.BOMLine, error) {
	header := []string{"parent_pn", "child_pn", "qty_per", "find_number"}
	records, err := readCSV(filename, "BOM", header)
	if err != nil {
		return nil, err
	}

	var lines []*entities.BOMLine
	for i, record := range records {
		qtyPer, err := entities.ParseQuantity(record[2])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		findNumber, err := strconv.Atoi(record[3])
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: invalid find_number: %w", i+2, err)
		}
		line, err := entities.NewBOMLine(entities.PartNumber(record[0]), entities.PartNumber(record[1]), qtyPer, findNumber)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadStock loads opening balances from a CSV file
func (l *Loader) LoadStock(filename string) ([]StockRow, error) {
	header := []string{"part_number", "branch", "quantity"}
	records, err := readCSV(filename, "stock", header)
	if err != nil {
		return nil, err
	}

	var rows []StockRow
	for i, record := range records {
		quantity, err := entities.ParseQuantity(record[2])
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		if record[1] == "" {
			return nil, fmt.Errorf("stock CSV row %d: branch cannot be empty", i+2)
		}
		rows = append(rows, StockRow{
			PartNumber: entities.PartNumber(record[0]),
			Branch:     entities.BranchID(record[1]),
			Quantity:   quantity,
		})
	}
	return rows, nil
}

// LoadOrders loads order lines from a CSV file
func (l *Loader) LoadOrders(filename string) ([]OrderLineRow, error) {
	header := []string{"order_ref", "branch", "description", "line_type", "part_number", "quantity"}
	records, err := readCSV(filename, "orders", header)
	if err != nil {
		return nil, err
	}

	var rows []OrderLineRow
	for i, record := range records {
		lineType := LineType(strings.ToLower(record[3]))
		switch lineType {
		case ItemLine, MaterialLine, ServiceLine:
		default:
			return nil, fmt.Errorf("orders CSV row %d: invalid line_type: %s", i+2, record[3])
		}
		quantity, err := entities.ParseQuantity(record[5])
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", i+2, err)
		}
		if record[0] == "" {
			return nil, fmt.Errorf("orders CSV row %d: order_ref cannot be empty", i+2)
		}
		rows = append(rows, OrderLineRow{
			Ref:         record[0],
			Branch:      entities.BranchID(record[1]),
			Description: record[2],
			LineType:    lineType,
			PartNumber:  entities.PartNumber(record[4]),
			Quantity:    quantity,
		})
	}
	return rows, nil
}

// LoadActions loads the steps to run from a CSV file
func (l *Loader) LoadActions(filename string) ([]ActionRow, error) {
	header := []string{"order_ref", "action", "target", "quantity"}
	records, err := readCSV(filename, "actions", header)
	if err != nil {
		return nil, err
	}

	var rows []ActionRow
	for i, record := range records {
		row := ActionRow{
			Ref:    record[0],
			Action: strings.ToLower(record[1]),
			Target: entities.PartNumber(record[2]),
		}
		if record[3] != "" {
			quantity, err := entities.ParseQuantity(record[3])
			if err != nil {
				return nil, fmt.Errorf("actions CSV row %d: %w", i+2, err)
			}
			row.Quantity = &quantity
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readCSV returns the data rows of a file after checking its header and
// column count. The error wraps os.ErrNotExist when the file is missing.
func readCSV(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}
	return records[1:], nil
}

// validateHeader checks if the CSV header matches expected columns
func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != col {
			return false
		}
	}
	return true
}
