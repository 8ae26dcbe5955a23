package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/wishlist"
)

type wishlistRepo struct {
	db *gorm.DB
}

// NewWishlistRepository 创建心愿单仓储
func NewWishlistRepository(db *gorm.DB) wishlist.Repository {
	return &wishlistRepo{db: db}
}

func (r *wishlistRepo) ListByUser(ctx context.Context, userID int64) ([]*wishlist.EntryWithProduct, error) {
	var entries []*wishlist.Entry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	out := make([]*wishlist.EntryWithProduct, 0, len(entries))
	for _, e := range entries {
		var p product.Product
		if err := r.db.WithContext(ctx).First(&p, e.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue // 商品已被删除，跳过
			}
			return nil, err
		}
		out = append(out, &wishlist.EntryWithProduct{Entry: e, Product: &p})
	}
	return out, nil
}

func (r *wishlistRepo) ProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&wishlist.Entry{}).
		Where("user_id = ?", userID).
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *wishlistRepo) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	var e wishlist.Entry
	err := r.db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *wishlistRepo) Add(ctx context.Context, userID, productID int64) error {
	return r.db.WithContext(ctx).Create(&wishlist.Entry{
		UserID:    userID,
		ProductID: productID,
	}).Error
}

func (r *wishlistRepo) Remove(ctx context.Context, userID, productID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&wishlist.Entry{}).Error
}
