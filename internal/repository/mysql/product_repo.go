package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetActiveByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListActive(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if filter.Category != "" && filter.Category != "all" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where(
			"name LIKE ? OR description LIKE ? OR short_description LIKE ?",
			kw, kw, kw,
		)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", filter.MaxPrice)
	}

	var list []*product.Product
	if err := query.Order("id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListFeatured(ctx context.Context, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = 8
	}
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("active = ? AND featured = ?", true, true).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	// 没有推荐商品时退回最新上架
	if len(list) == 0 {
		if err := r.db.WithContext(ctx).
			Where("active = ?", true).
			Order("created_at DESC").
			Limit(limit).
			Find(&list).Error; err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *productRepo) ListRelated(ctx context.Context, p *product.Product, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("active = ? AND category = ? AND id <> ?", true, p.Category, p.ID).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListAll(ctx context.Context) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&product.Product{}).Count(&n).Error
	return n, err
}
