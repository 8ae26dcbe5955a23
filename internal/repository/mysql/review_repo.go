package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/review"
)

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Upsert(ctx context.Context, rv *review.Review) error {
	var existing review.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", rv.ProductID, rv.UserID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(rv).Error
	}
	if err != nil {
		return err
	}
	existing.Rating = rv.Rating
	existing.Comment = rv.Comment
	if err := r.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return err
	}
	*rv = existing
	return nil
}

func (r *reviewRepo) GetByProductAndUser(ctx context.Context, productID, userID int64) (*review.Review, error) {
	var rv review.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		First(&rv).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64) ([]*review.Review, error) {
	var list []*review.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) Delete(ctx context.Context, productID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Delete(&review.Review{}).Error
}

func (r *reviewRepo) AverageRating(ctx context.Context, productID int64) (float64, int64, error) {
	var result struct {
		Avg float64
		Num int64
	}
	err := r.db.WithContext(ctx).Model(&review.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS num").
		Where("product_id = ?", productID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Avg, result.Num, nil
}
