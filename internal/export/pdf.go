package export

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// WriteOrdersPDF 订单汇总 PDF，一行一单
func WriteOrdersPDF(w io.Writer, rows []*OrderRow) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Orders Report")
	pdf.Ln(12)

	widths := []float64{32, 30, 22, 26, 16, 44}
	header := []string{"Order ID", "User", "Status", "Amount", "Items", "Created"}

	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		vals := rowValues(r)
		for i, v := range vals {
			pdf.CellFormat(widths[i], 8, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

// WriteInvoicePDF 单笔订单发票 PDF
func WriteInvoicePDF(w io.Writer, inv *Invoice) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Invoice "+inv.OrderID)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Customer: "+inv.CustomerName)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Phone: "+inv.Phone)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Date: "+inv.CreatedAt.Format("2006-01-02"))
	pdf.Ln(8)
	pdf.MultiCell(0, 5, "Ship to:\n"+inv.ShippingAddress, "", "L", false)
	pdf.Ln(6)

	widths := []float64{90, 20, 30, 30}
	header := []string{"Item", "Qty", "Price", "Total"}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range inv.Lines {
		pdf.CellFormat(widths[0], 8, l.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, formatInt(l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, l.Price.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, l.Total().StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Grand Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, inv.TotalAmount.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	return pdf.Output(w)
}
