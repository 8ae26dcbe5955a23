package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet  = "Orders"
	invoiceSheet = "Invoice"
)

// WriteOrdersXLSX 把订单行写成 XLSX，单 sheet 加粗表头
func WriteOrdersXLSX(w io.Writer, rows []*OrderRow) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for col, h := range orderHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(ordersSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(ordersSheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, r := range rows {
		for col, v := range rowValues(r) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(ordersSheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// WriteInvoiceXLSX 单笔订单发票 XLSX
func WriteInvoiceXLSX(w io.Writer, inv *Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(invoiceSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	// 表头区
	if err := f.SetCellValue(invoiceSheet, "A1", "发票 "+inv.OrderID); err != nil {
		return err
	}
	if err := f.SetCellStyle(invoiceSheet, "A1", "A1", boldStyle); err != nil {
		return err
	}
	_ = f.SetCellValue(invoiceSheet, "A2", "客户："+inv.CustomerName)
	_ = f.SetCellValue(invoiceSheet, "A3", "电话："+inv.Phone)
	_ = f.SetCellValue(invoiceSheet, "A4", "日期："+inv.CreatedAt.Format("2006-01-02"))

	// 明细区
	const headerRow = 6
	for col, h := range []string{"商品", "数量", "单价", "小计"} {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(invoiceSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(invoiceSheet, cell, cell, boldStyle); err != nil {
			return err
		}
	}
	row := headerRow + 1
	for _, l := range inv.Lines {
		vals := []string{l.Name, formatInt(l.Quantity), l.Price.StringFixed(2), l.Total().StringFixed(2)}
		for col, v := range vals {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(invoiceSheet, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	totalLabel, err := excelize.CoordinatesToCellName(3, row)
	if err != nil {
		return err
	}
	totalCell, err := excelize.CoordinatesToCellName(4, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(invoiceSheet, totalLabel, "合计"); err != nil {
		return err
	}
	if err := f.SetCellValue(invoiceSheet, totalCell, inv.TotalAmount.StringFixed(2)); err != nil {
		return err
	}
	if err := f.SetCellStyle(invoiceSheet, totalLabel, totalCell, boldStyle); err != nil {
		return err
	}

	return f.Write(w)
}
