package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/review"
)

// ErrRatingOutOfRange 评分必须是 1~5
var ErrRatingOutOfRange = errors.New("评分必须在 1 到 5 之间")

// ProductService 商品浏览与后台维护
type ProductService struct {
	repo       product.Repository
	reviewRepo review.Repository
}

// NewProductService 创建商品服务
func NewProductService(repo product.Repository, reviewRepo review.Repository) *ProductService {
	return &ProductService{repo: repo, reviewRepo: reviewRepo}
}

// List 按筛选条件返回上架商品
func (s *ProductService) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	return s.repo.ListActive(ctx, filter)
}

// ListFeatured 首页推荐位
func (s *ProductService) ListFeatured(ctx context.Context, limit int) ([]*product.Product, error) {
	return s.repo.ListFeatured(ctx, limit)
}

// Detail 商品详情页数据
type Detail struct {
	Product     *product.Product
	Related     []*product.Product
	Reviews     []*review.Review
	AvgRating   float64
	ReviewCount int64
}

// GetDetail 详情 + 关联商品 + 评价
func (s *ProductService) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	p, err := s.repo.GetActiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.repo.ListRelated(ctx, p, 4)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviewRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	avg, num, err := s.reviewRepo.AverageRating(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Product:     p,
		Related:     related,
		Reviews:     reviews,
		AvgRating:   avg,
		ReviewCount: num,
	}, nil
}

// AddReview 新增或覆盖当前用户的评价
func (s *ProductService) AddReview(ctx context.Context, userID, productID int64, rating int, comment string) (*review.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrRatingOutOfRange
	}
	if _, err := s.repo.GetActiveByID(ctx, productID); err != nil {
		return nil, err
	}
	rv := &review.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviewRepo.Upsert(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// DeleteReview 删除当前用户的评价
func (s *ProductService) DeleteReview(ctx context.Context, userID, productID int64) error {
	return s.reviewRepo.Delete(ctx, productID, userID)
}

// GetByID 后台用，不过滤上架状态
func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAll 后台商品列表
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

// Create 后台新增商品
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	return s.repo.Create(ctx, p)
}

// Update 后台更新商品
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	return s.repo.Update(ctx, p)
}

// Delete 后台删除商品
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	_, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
