package review

import (
	"context"
	"time"
)

// Review 商品评价，每个用户对同一商品只保留一条
type Review struct {
	ID        int64  `gorm:"primaryKey"`
	ProductID int64  `gorm:"uniqueIndex:uk_product_user;not null"`
	UserID    int64  `gorm:"uniqueIndex:uk_product_user;not null"`
	Rating    int    `gorm:"not null"` // 1~5
	Comment   string `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository 评价仓储接口
type Repository interface {
	Upsert(ctx context.Context, r *Review) error
	GetByProductAndUser(ctx context.Context, productID, userID int64) (*Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]*Review, error)
	Delete(ctx context.Context, productID, userID int64) error
	AverageRating(ctx context.Context, productID int64) (float64, int64, error)
}
