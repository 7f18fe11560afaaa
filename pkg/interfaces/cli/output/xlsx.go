package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/production/pkg/application/dto"
)

// NewWorkbook lays the report out as one sheet per table. The caller owns
// the returned file and must Close it.
func NewWorkbook(report *dto.ProductionReport) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range buildTables(report) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(t.sheet); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, t, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write %s sheet: %w", t.sheet, err)
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, t table, headerStyle int) error {
	for i, h := range t.header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(t.sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(t.sheet, cell, cell, headerStyle); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(t.sheet, col, col, 16); err != nil {
			return err
		}
	}

	for r, row := range t.rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(t.sheet, cell, sheetValue(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

// sheetValue turns quantities into numbers so they can be summed in a
// spreadsheet
func sheetValue(v any) any {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case time.Time, *time.Time:
		return formatCell(v)
	default:
		return v
	}
}

func generateXLSXOutput(report *dto.ProductionReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := NewWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	filename := filepath.Join(config.OutputDir, "production_report.xlsx")
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to write xlsx file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.out(), "Workbook saved to: %s\n", filename)
	}
	return nil
}
