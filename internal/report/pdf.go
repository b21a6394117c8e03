package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/calc"
	"github.com/erazemk/stockmgtr/internal/model"
)

// PurchaseOrderPDF writes a printable purchase order. Prices and totals are
// left out unless withAmounts is set.
func PurchaseOrderPDF(w io.Writer, po *model.PurchaseOrder, withAmounts bool) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, "PURCHASE ORDER")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, tr("Reference: "+po.ReferenceNumber))
	pdf.Cell(95, 6, tr("Status: "+po.Status.Label()))
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, tr("Manufacturer: "+po.Manufacturer))
	pdf.Cell(95, 6, "Created: "+po.CreatedAt.Format("02-Jan-2006"))
	pdf.Ln(6)
	if po.Store != "" {
		pdf.Cell(95, 6, tr("Deliver to: "+po.Store))
	} else {
		pdf.Cell(95, 6, tr("Delivery: "+po.DeliveryType))
	}
	if !po.ExpectedDeliveryDate.IsZero() {
		pdf.Cell(95, 6, "Expected: "+po.ExpectedDeliveryDate.Format("02-Jan-2006"))
	}
	pdf.Ln(10)

	type column struct {
		title string
		width float64
		align string
	}
	cols := []column{{"Product", 100, "L"}, {"Qty", 20, "C"}, {"Received", 25, "C"}}
	if withAmounts {
		cols = []column{
			{"Product", 70, "L"}, {"Qty", 15, "C"}, {"Price inc", 25, "R"},
			{"Disc %", 20, "R"}, {"Price exc", 25, "R"}, {"Subtotal exc", 35, "R"},
		}
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(c.width, 8, c.title, "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Arial", "", 10)
	for _, it := range po.Items {
		cells := []string{tr(it.Product), fmt.Sprint(it.Quantity), fmt.Sprint(it.ReceivedQuantity)}
		if withAmounts {
			l := calc.Line(calc.LineInput{PriceInc: it.PriceInc, Quantity: it.Quantity, DiscountPercent: it.DiscountPercent})
			cells = []string{
				tr(it.Product), fmt.Sprint(it.Quantity), calc.Money(it.PriceInc),
				it.DiscountPercent.String(), calc.Money(l.PriceExc), calc.Money(l.SubtotalExc),
			}
		}
		for i, c := range cols {
			ln := 0
			if i == len(cols)-1 {
				ln = 1
			}
			pdf.CellFormat(c.width, 8, cells[i], "1", ln, c.align, false, 0, "")
		}
	}

	if withAmounts {
		t := calc.Totals(calc.OrderLines(po.Items), decimal.Zero)
		pdf.Ln(5)
		for _, row := range []struct {
			label string
			value decimal.Decimal
		}{
			{"Subtotal (exc GST)", t.SubtotalExc},
			{"Discount", t.TotalDiscount},
			{"After discount", t.AfterDiscount},
			{"GST", t.GST},
			{"Total (inc GST)", t.GrandTotal},
		} {
			pdf.SetFont("Arial", "B", 10)
			pdf.Cell(155, 7, row.label)
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(35, 7, calc.Money(row.value), "1", 1, "R", false, 0, "")
		}
	}

	if po.NoteForManufacturer != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(190, 6, "Notes")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, tr(po.NoteForManufacturer), "", "", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing purchase order pdf: %w", err)
	}
	return nil
}
