package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/order"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// CreateTx 在外部事务中创建订单与订单行
func (r *orderRepo) CreateTx(tx *gorm.DB, o *order.Order, items []*order.Item) error {
	if err := tx.Create(o).Error; err != nil {
		return err
	}
	for _, it := range items {
		it.OrderID = o.ID
		if err := tx.Create(it).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetForUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) Items(ctx context.Context, orderID int64) ([]*order.Item, error) {
	var items []*order.Item
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepo) ItemCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		OrderID int64
		Num     int64
	}
	if err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_id, COUNT(*) AS num").
		Group("order_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.OrderID] = row.Num
	}
	return counts, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListAll(ctx context.Context) ([]*order.Order, error) {
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *orderRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Count(&n).Error
	return n, err
}

func (r *orderRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *orderRepo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	return r.sumTotal(ctx, r.db.WithContext(ctx).Model(&order.Order{}))
}

func (r *orderRepo) RevenueSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	return r.sumTotal(ctx, r.db.WithContext(ctx).Model(&order.Order{}).
		Where("created_at >= ?", since))
}

func (r *orderRepo) sumTotal(ctx context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var raw struct {
		Total decimal.Decimal
	}
	if err := query.
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	return raw.Total, nil
}

func (r *orderRepo) TopProducts(ctx context.Context, limit int) ([]*order.TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	var list []*order.TopProduct
	if err := r.db.WithContext(ctx).
		Table("order_items").
		Select("product_id, name, COUNT(*) AS order_num").
		Group("product_id, name").
		Order("order_num DESC").
		Limit(limit).
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
