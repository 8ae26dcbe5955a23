package wishlist

import (
	"context"
	"time"

	"github.com/example/goshop/internal/datamodels/product"
)

// Entry 心愿单条目，同一用户同一商品只存一条
type Entry struct {
	ID        int64 `gorm:"primaryKey"`
	UserID    int64 `gorm:"uniqueIndex:uk_user_product;not null"`
	ProductID int64 `gorm:"uniqueIndex:uk_user_product;not null"`
	CreatedAt time.Time
}

// TableName 心愿单条目表
func (Entry) TableName() string {
	return "wishlist_items"
}

// EntryWithProduct 条目连同商品信息
type EntryWithProduct struct {
	Entry   *Entry
	Product *product.Product
}

// Repository 心愿单仓储接口
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]*EntryWithProduct, error)
	ProductIDs(ctx context.Context, userID int64) ([]int64, error)
	Exists(ctx context.Context, userID, productID int64) (bool, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
}
