package export

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/order"
)

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// OrderRow 订单导出行，三种格式共用同一份数据
type OrderRow struct {
	OrderID     string
	Username    string
	Status      string
	TotalAmount decimal.Decimal
	ItemCount   int64
	CreatedAt   time.Time
}

// 导出表头，列序与 rowValues 保持一致
var orderHeader = []string{"订单号", "用户", "状态", "金额", "件数", "下单时间"}

func rowValues(r *OrderRow) []string {
	return []string{
		r.OrderID,
		r.Username,
		r.Status,
		r.TotalAmount.StringFixed(2),
		formatInt(r.ItemCount),
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// InvoiceLine 发票明细行
type InvoiceLine struct {
	Name     string
	Quantity int64
	Price    decimal.Decimal
}

// Total 行小计
func (l *InvoiceLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// Invoice 单笔订单的发票数据
type Invoice struct {
	OrderID         string
	CustomerName    string
	ShippingAddress string
	Phone           string
	CreatedAt       time.Time
	Lines           []*InvoiceLine
	TotalAmount     decimal.Decimal
}

// NewInvoice 由订单与订单行组装发票
func NewInvoice(o *order.Order, items []*order.Item, customerName string) *Invoice {
	inv := &Invoice{
		OrderID:         o.OrderID,
		CustomerName:    customerName,
		ShippingAddress: o.ShippingAddress,
		Phone:           o.Phone,
		CreatedAt:       o.CreatedAt,
		TotalAmount:     o.TotalAmount,
	}
	for _, it := range items {
		inv.Lines = append(inv.Lines, &InvoiceLine{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return inv
}
