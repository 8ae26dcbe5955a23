package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// 订单状态流转：pending -> processing -> shipped -> delivered，任意未完结状态可取消
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Order 订单，创建后除状态外不可变
type Order struct {
	ID              int64           `gorm:"primaryKey"`
	OrderID         string          `gorm:"uniqueIndex;size:16;not null"` // 对外展示的订单号
	UserID          int64           `gorm:"index;not null"`
	Status          string          `gorm:"size:16;index;not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ShippingAddress string          `gorm:"size:1024;not null"` // 下单时的地址快照
	Phone           string          `gorm:"size:15"`
	CreatedAt       time.Time       `gorm:"index"`
	UpdatedAt       time.Time
}

// Item 订单行，单价为下单时刻的成交价快照
type Item struct {
	ID        int64           `gorm:"primaryKey"`
	OrderID   int64           `gorm:"index;not null"`
	ProductID int64           `gorm:"index;not null"`
	Name      string          `gorm:"size:128;not null"` // 商品名快照
	Quantity  int64           `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
}

// TableName 避免与购物车条目表重名
func (Item) TableName() string {
	return "order_items"
}

// LineTotal 行小计
func (i *Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// TopProduct 后台统计：销量靠前的商品
type TopProduct struct {
	ProductID int64
	Name      string
	OrderNum  int64
}

// Repository 订单仓储接口
type Repository interface {
	// CreateTx 在给定事务中创建订单与订单行
	CreateTx(tx *gorm.DB, o *Order, items []*Item) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetForUser(ctx context.Context, id, userID int64) (*Order, error)
	Items(ctx context.Context, orderID int64) ([]*Item, error)
	// ItemCounts 每个订单的订单行数，导出报表用
	ItemCounts(ctx context.Context) (map[int64]int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	RevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	TopProducts(ctx context.Context, limit int) ([]*TopProduct, error)
}
