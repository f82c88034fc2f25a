// Package export writes transaction details as CSV or XLSX.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"finance-tracker-go/internal/aggregate"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

const sheetName = "Transactions"

var header = []string{"Date", "Description", "Type", "Category", "Payment Method", "Amount"}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f Format) Filename(stamp string) string {
	return fmt.Sprintf("transactions_%s.%s", stamp, f)
}

func row(d aggregate.TransactionDetail) []string {
	return []string{
		d.Date,
		d.Description,
		string(d.TransactionType),
		d.CategoryName,
		d.PaymentMethodName,
		d.Amount.StringFixed(2),
	}
}

func Write(w io.Writer, f Format, details []aggregate.TransactionDetail) error {
	if f == XLSX {
		return WriteXLSX(w, details)
	}
	return WriteCSV(w, details)
}

func WriteCSV(w io.Writer, details []aggregate.TransactionDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: writing csv header: %w", err)
	}
	for _, d := range details {
		if err := cw.Write(row(d)); err != nil {
			return fmt.Errorf("export: writing csv row %s: %w", d.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one sheet with a header row. Amounts are numeric cells.
func WriteXLSX(w io.Writer, details []aggregate.TransactionDetail) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("export: naming sheet: %w", err)
	}
	for i, h := range header {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
	}
	for r, d := range details {
		cells := row(d)
		for c, v := range cells[:len(cells)-1] {
			if err := setCell(f, c+1, r+2, v); err != nil {
				return err
			}
		}
		amount, _ := d.Amount.Float64()
		if err := setCell(f, len(cells), r+2, amount); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 30)
	_ = f.SetColWidth(sheetName, "D", "E", 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing xlsx: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetCellValue(sheetName, cell, v); err != nil {
		return fmt.Errorf("export: setting %s: %w", cell, err)
	}
	return nil
}
