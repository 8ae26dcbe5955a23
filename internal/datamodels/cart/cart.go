package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/product"
)

// Cart 购物车，每个用户一辆
type Cart struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item 购物车条目
type Item struct {
	ID        int64 `gorm:"primaryKey"`
	CartID    int64 `gorm:"uniqueIndex:uk_cart_product;not null"`
	ProductID int64 `gorm:"uniqueIndex:uk_cart_product;not null"`
	Quantity  int64 `gorm:"not null"` // 恒大于 0
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 避免与订单行表重名
func (Item) TableName() string {
	return "cart_items"
}

// ItemWithProduct 条目连同商品信息，用于结算与展示
type ItemWithProduct struct {
	Item    *Item
	Product *product.Product
}

// LineTotal 条目小计
func (i *ItemWithProduct) LineTotal() decimal.Decimal {
	return i.Product.SellingPrice().Mul(decimal.NewFromInt(i.Item.Quantity))
}

// TotalPrice 购物车合计
func TotalPrice(items []*ItemWithProduct) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// TotalItems 商品件数合计
func TotalItems(items []*ItemWithProduct) int64 {
	var n int64
	for _, it := range items {
		n += it.Item.Quantity
	}
	return n
}

// Repository 购物车仓储接口
type Repository interface {
	GetOrCreateByUser(ctx context.Context, userID int64) (*Cart, error)
	ItemsWithProducts(ctx context.Context, cartID int64) ([]*ItemWithProduct, error)
	GetItem(ctx context.Context, itemID, userID int64) (*Item, error)
	GetItemByProduct(ctx context.Context, cartID, productID int64) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	RemoveItem(ctx context.Context, itemID int64) error
}
