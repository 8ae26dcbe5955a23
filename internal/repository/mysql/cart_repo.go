package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/product"
)

type cartRepo struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepo{db: db}
}

func (r *cartRepo) GetOrCreateByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = cart.Cart{UserID: userID}
		if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cartRepo) ItemsWithProducts(ctx context.Context, cartID int64) ([]*cart.ItemWithProduct, error) {
	var items []*cart.Item
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	out := make([]*cart.ItemWithProduct, 0, len(items))
	for _, it := range items {
		var p product.Product
		if err := r.db.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
			return nil, err
		}
		out = append(out, &cart.ItemWithProduct{Item: it, Product: &p})
	}
	return out, nil
}

func (r *cartRepo) GetItem(ctx context.Context, itemID, userID int64) (*cart.Item, error) {
	var it cart.Item
	if err := r.db.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cartRepo) GetItemByProduct(ctx context.Context, cartID, productID int64) (*cart.Item, error) {
	var it cart.Item
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *cartRepo) CreateItem(ctx context.Context, item *cart.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepo) UpdateItem(ctx context.Context, item *cart.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *cartRepo) RemoveItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&cart.Item{}, itemID).Error
}
