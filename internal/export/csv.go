package export

import (
	"encoding/csv"
	"io"
)

// WriteOrdersCSV 把订单行写成 CSV
func WriteOrdersCSV(w io.Writer, rows []*OrderRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(orderHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(rowValues(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
