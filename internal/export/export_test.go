package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/goshop/internal/datamodels/order"
)

func sampleRows() []*OrderRow {
	return []*OrderRow{
		{
			OrderID:     "FKA1B2C3D4",
			Username:    "alice",
			Status:      order.StatusDelivered,
			TotalAmount: decimal.RequireFromString("477.00"),
			ItemCount:   3,
			CreatedAt:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.Local),
		},
		{
			OrderID:     "FKE5F6A7B8",
			Username:    "bob",
			Status:      order.StatusPending,
			TotalAmount: decimal.RequireFromString("99.00"),
			ItemCount:   1,
			CreatedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local),
		},
	}
}

func TestWriteOrdersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "订单号")
	assert.Contains(t, lines[1], "FKA1B2C3D4")
	assert.Contains(t, lines[1], "477.00")
	assert.Contains(t, lines[2], "bob")
}

func TestWriteOrdersXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersXLSX(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(ordersSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "订单号", v)

	v, err = f.GetCellValue(ordersSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "FKA1B2C3D4", v)

	v, err = f.GetCellValue(ordersSheet, "D3")
	require.NoError(t, err)
	assert.Equal(t, "99.00", v)

	v, err = f.GetCellValue(ordersSheet, "E2")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestWriteInvoiceXLSX(t *testing.T) {
	o := &order.Order{
		OrderID:     "FKA1B2C3D4",
		TotalAmount: decimal.RequireFromString("477.00"),
		CreatedAt:   time.Now(),
	}
	items := []*order.Item{
		{Name: "Keyboard", Quantity: 2, Price: decimal.RequireFromString("199.00")},
		{Name: "Mouse", Quantity: 1, Price: decimal.RequireFromString("79.00")},
	}
	inv := NewInvoice(o, items, "Alice Wang")

	var buf bytes.Buffer
	require.NoError(t, WriteInvoiceXLSX(&buf, inv))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(invoiceSheet, "A7")
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", v)

	v, err = f.GetCellValue(invoiceSheet, "D9")
	require.NoError(t, err)
	assert.Equal(t, "477.00", v)
}

func TestWriteOrdersPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrdersPDF(&buf, sampleRows()))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Greater(t, len(out), 500)
}

func TestWriteInvoicePDF(t *testing.T) {
	o := &order.Order{
		OrderID:         "FKA1B2C3D4",
		TotalAmount:     decimal.RequireFromString("477.00"),
		ShippingAddress: "Alice Wang\n1 Main St\nHangzhou, ZJ - 310000",
		Phone:           "13800000000",
		CreatedAt:       time.Now(),
	}
	items := []*order.Item{
		{Name: "Keyboard", Quantity: 2, Price: decimal.RequireFromString("199.00")},
		{Name: "Mouse", Quantity: 1, Price: decimal.RequireFromString("79.00")},
	}

	inv := NewInvoice(o, items, "Alice Wang")
	require.Len(t, inv.Lines, 2)
	assert.True(t, inv.Lines[0].Total().Equal(decimal.RequireFromString("398.00")))

	var buf bytes.Buffer
	require.NoError(t, WriteInvoicePDF(&buf, inv))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
