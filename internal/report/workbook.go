// Package report renders stocktakes, stock lists and purchase orders as
// downloadable XLSX and PDF files.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/stockmgtr/internal/calc"
	"github.com/erazemk/stockmgtr/internal/model"
)

// Content types of the rendered files.
const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PDFContentType  = "application/pdf"
)

type sheet struct {
	f    *excelize.File
	name string
	bold int
	row  int
}

func newWorkbook(first string) (*excelize.File, *sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("naming sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("creating style: %w", err)
	}
	return f, &sheet{f: f, name: first, bold: bold}, nil
}

func (s *sheet) addSheet(name string) (*sheet, error) {
	if _, err := s.f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("adding sheet %s: %w", name, err)
	}
	return &sheet{f: s.f, name: name, bold: s.bold}, nil
}

// addRow writes values to the next row.
func (s *sheet) addRow(values ...any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(s.name, cell, &values)
}

// header writes a bold row.
func (s *sheet) header(values ...any) error {
	if err := s.addRow(values...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	last, _ := excelize.CoordinatesToCellName(len(values), s.row)
	return s.f.SetCellStyle(s.name, first, last, s.bold)
}

func finish(f *excelize.File, w io.Writer) error {
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// StocktakeWorkbook writes a summary sheet and one row per counted item with
// its variance.
func StocktakeWorkbook(w io.Writer, st *model.Stocktake, items []model.StocktakeItem) error {
	f, summary, err := newWorkbook("Summary")
	if err != nil {
		return err
	}
	sum := calc.Summarize(items)

	rows := [][]any{
		{"Reference", st.AuditReference},
		{"Title", st.Title},
		{"Status", st.Status.Label()},
		{"Planned", st.PlannedStartDate.String() + " to " + st.PlannedEndDate.String()},
		{"Items", sum.Total},
		{"Counted", sum.Counted},
		{"Pending", sum.Pending},
		{"With variance", sum.WithVariance},
		{"Net variance", sum.NetVariance},
		{"Progress", calc.Percent(sum.Progress)},
	}
	if err := summary.header("Stocktake", ""); err != nil {
		return err
	}
	for _, r := range rows {
		if err := summary.addRow(r...); err != nil {
			return err
		}
	}

	ws, err := summary.addSheet("Items")
	if err != nil {
		return err
	}
	if err := ws.header("Item", "SKU", "Location", "Aisle", "System", "Counted", "Variance", "Status", "Notes"); err != nil {
		return err
	}
	for _, it := range items {
		variance, status := calc.Variance(it.SystemQuantity, it.PhysicalCount)
		var counted any = ""
		if it.PhysicalCount != nil {
			counted = *it.PhysicalCount
		}
		err := ws.addRow(it.Stock.ItemName, it.Stock.SKU, it.AuditLocation, it.AuditAisle,
			it.SystemQuantity, counted, variance, string(status), it.VarianceNotes)
		if err != nil {
			return err
		}
	}
	return finish(f, w)
}

// StockWorkbook writes one row per stock line.
func StockWorkbook(w io.Writer, stock []model.Stock) error {
	f, ws, err := newWorkbook("Stock")
	if err != nil {
		return err
	}
	err = ws.header("ID", "Item", "SKU", "Condition", "Location", "Aisle",
		"Quantity", "Reserved", "Committed", "Available", "Re-order", "Low stock")
	if err != nil {
		return err
	}
	for _, st := range stock {
		location := ""
		if st.Location != nil {
			location = st.Location.Name
		}
		low := "No"
		if st.IsLowStock {
			low = "Yes"
		}
		err := ws.addRow(st.ID, st.ItemName, st.SKU, st.Condition.Label(), location, st.Aisle,
			st.Quantity, st.ReservedQuantity, st.CommittedQuantity, st.AvailableForSale, st.ReOrder, low)
		if err != nil {
			return err
		}
	}
	return finish(f, w)
}
