package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/notification"
)

// NotificationService 站内通知服务
type NotificationService struct {
	repo notification.Repository
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Notify 创建一条通知
func (s *NotificationService) Notify(ctx context.Context, n *notification.Notification) error {
	if n.Type == "" {
		n.Type = notification.TypeGeneral
	}
	return s.repo.Create(ctx, n)
}

// NotifyTx 在外部事务中创建通知，下单流程用它保证同一提交
func (s *NotificationService) NotifyTx(tx *gorm.DB, n *notification.Notification) error {
	if n.Type == "" {
		n.Type = notification.TypeGeneral
	}
	return s.repo.CreateTx(tx, n)
}

// List 用户的全部通知
func (s *NotificationService) List(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// UnreadCount 未读数
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead 全部标记已读，返回影响条数
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
