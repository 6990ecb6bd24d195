package render

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

const (
	dateLayout = "2006-01-02 15:04"
	sheetName  = "Expenses"
)

var tableHeader = []string{"Date", "Category", "Description", "Amount"}

// Spreadsheet renders expenses as an XLSX workbook with a total row.
func Spreadsheet(expenses []core.Expense) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, ErrNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	header := make([]any, len(tableHeader))
	for i, h := range tableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	var total core.Money
	for i, e := range expenses {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{e.Timestamp.UTC().Format(dateLayout), e.Category, e.Description, e.Amount.Float()}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
		total = total.Add(e.Amount)
	}

	last := len(expenses) + 1
	totalRow := last + 1
	if err := f.SetCellValue(sheetName, fmt.Sprintf("C%d", totalRow), "Total"); err != nil {
		return nil, err
	}
	totalCell := fmt.Sprintf("D%d", totalRow)
	if err := f.SetCellValue(sheetName, totalCell, total.Float()); err != nil {
		return nil, err
	}
	if err := f.SetCellFormula(sheetName, totalCell, fmt.Sprintf("SUM(D2:D%d)", last)); err != nil {
		return nil, err
	}

	if err := f.SetCellStyle(sheetName, "A1", "D1", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "D2", totalCell, money); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "A", "D", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// CSV renders expenses with the same columns as the spreadsheet. The output
// can be uploaded again as an import.
func CSV(expenses []core.Expense) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, ErrNoData
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tableHeader); err != nil {
		return nil, err
	}
	for _, e := range expenses {
		rec := []string{e.Timestamp.UTC().Format(dateLayout), e.Category, e.Description, e.Amount.Plain()}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
