package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品模型
type Product struct {
	ID               int64           `gorm:"primaryKey"`
	Name             string          `gorm:"size:128;not null"`
	Slug             string          `gorm:"size:160;index"`
	Description      string          `gorm:"size:2048"`
	ShortDescription string          `gorm:"size:512"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountedPrice  decimal.Decimal `gorm:"type:decimal(10,2)"` // 为零时按原价卖
	Stock            int64           `gorm:"not null"`           // 不允许为负
	Category         string          `gorm:"size:32;index"`
	Featured         bool            `gorm:"index"`
	Active           bool            `gorm:"index;not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SellingPrice 下单时实际使用的单价
func (p *Product) SellingPrice() decimal.Decimal {
	if p.DiscountedPrice.IsPositive() {
		return p.DiscountedPrice
	}
	return p.Price
}

// ListFilter 商品列表筛选条件
type ListFilter struct {
	Category string
	Keyword  string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetActiveByID(ctx context.Context, id int64) (*Product, error)
	ListActive(ctx context.Context, filter ListFilter) ([]*Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*Product, error)
	ListRelated(ctx context.Context, p *Product, limit int) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
