package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/product"
)

// ErrOutOfStock 商品无货
var ErrOutOfStock = errors.New("商品暂时无货")

// StockLimitError 购买数量超过库存
type StockLimitError struct {
	Stock int64
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("库存不足，最多还能买 %d 件", e.Stock)
}

// CartService 购物车
type CartService struct {
	repo        cart.Repository
	productRepo product.Repository
}

// NewCartService 创建购物车服务
func NewCartService(repo cart.Repository, productRepo product.Repository) *CartService {
	return &CartService{repo: repo, productRepo: productRepo}
}

// Summary 购物车页数据
type Summary struct {
	Cart       *cart.Cart
	Items      []*cart.ItemWithProduct
	TotalPrice decimal.Decimal
	TotalItems int64
}

// Get 返回当前用户的购物车汇总
func (s *CartService) Get(ctx context.Context, userID int64) (*Summary, error) {
	c, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ItemsWithProducts(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Cart:       c,
		Items:      items,
		TotalPrice: cart.TotalPrice(items),
		TotalItems: cart.TotalItems(items),
	}, nil
}

// AddProduct 加购一件；已在车里则数量 +1，超库存时报错
func (s *CartService) AddProduct(ctx context.Context, userID, productID int64) (*Summary, error) {
	p, err := s.productRepo.GetActiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetItemByProduct(ctx, c.ID, productID)
	switch {
	case err == nil:
		if existing.Quantity+1 > p.Stock {
			return nil, &StockLimitError{Stock: p.Stock}
		}
		existing.Quantity++
		if err := s.repo.UpdateItem(ctx, existing); err != nil {
			return nil, err
		}
	case isNotFound(err):
		if p.Stock < 1 {
			return nil, ErrOutOfStock
		}
		if err := s.repo.CreateItem(ctx, &cart.Item{
			CartID:    c.ID,
			ProductID: productID,
			Quantity:  1,
		}); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.Get(ctx, userID)
}

// UpdateItem 设置条目数量；超库存时压到库存上限，0 等同删除
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID, quantity int64) (*Summary, error) {
	it, err := s.repo.GetItem(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.repo.RemoveItem(ctx, it.ID); err != nil {
			return nil, err
		}
		return s.Get(ctx, userID)
	}

	p, err := s.productRepo.GetByID(ctx, it.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Stock {
		quantity = p.Stock
	}
	// 库存已清零时压出来的也是 0，同样按删除处理
	if quantity <= 0 {
		if err := s.repo.RemoveItem(ctx, it.ID); err != nil {
			return nil, err
		}
		return s.Get(ctx, userID)
	}
	it.Quantity = quantity
	if err := s.repo.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// RemoveItem 删除条目
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) (*Summary, error) {
	it, err := s.repo.GetItem(ctx, itemID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, it.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
