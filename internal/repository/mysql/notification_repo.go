package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/notification"
)

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) CreateTx(tx *gorm.DB, n *notification.Notification) error {
	return tx.Create(n).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	var list []*notification.Notification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepo) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID int64) error {
	result := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}
