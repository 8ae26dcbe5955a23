package service

import (
	"context"
	"fmt"
	"log"

	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/wishlist"
)

// WishlistService 收藏夹
type WishlistService struct {
	repo        wishlist.Repository
	productRepo product.Repository
	notifier    *NotificationService
}

// NewWishlistService 创建收藏夹服务
func NewWishlistService(repo wishlist.Repository, productRepo product.Repository, notifier *NotificationService) *WishlistService {
	return &WishlistService{repo: repo, productRepo: productRepo, notifier: notifier}
}

// List 当前用户的收藏列表
func (s *WishlistService) List(ctx context.Context, userID int64) ([]*wishlist.EntryWithProduct, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Toggle 收藏/取消收藏，返回操作后的收藏状态。
// 收藏正在打折的商品时顺带发一条降价提醒。
func (s *WishlistService) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	p, err := s.productRepo.GetActiveByID(ctx, productID)
	if err != nil {
		return false, err
	}

	exists, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.repo.Remove(ctx, userID, productID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return false, err
	}

	if p.DiscountedPrice.IsPositive() && p.DiscountedPrice.LessThan(p.Price) {
		pid := p.ID
		if err := s.notifier.Notify(ctx, &notification.Notification{
			UserID:    userID,
			Title:     "收藏的商品正在打折",
			Message:   fmt.Sprintf("%s 现价 ￥%s（原价 ￥%s），先到先得！", p.Name, p.DiscountedPrice.StringFixed(2), p.Price.StringFixed(2)),
			Type:      notification.TypeWishlistSale,
			ProductID: &pid,
			ActionURL: fmt.Sprintf("/products/%d/", p.ID),
		}); err != nil {
			log.Printf("failed to notify wishlist sale user=%d product=%d: %v", userID, p.ID, err)
		}
	}
	return true, nil
}

// Remove 取消收藏
func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) error {
	return s.repo.Remove(ctx, userID, productID)
}

// ProductIDs 用户收藏的商品 ID 集合，列表页标红心用
func (s *WishlistService) ProductIDs(ctx context.Context, userID int64) (map[int64]bool, error) {
	ids, err := s.repo.ProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
