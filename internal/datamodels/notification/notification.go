package notification

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// 通知类型
const (
	TypeOrderPlaced    = "order_placed"
	TypeOrderShipped   = "order_shipped"
	TypeOrderDelivered = "order_delivered"
	TypeOrderCancelled = "order_cancelled"
	TypeWishlistSale   = "wishlist_item_sale"
	TypeAccountUpdate  = "account_update"
	TypeWelcome        = "welcome"
	TypeGeneral        = "general"
)

// Notification 站内通知，只追加不修改（已读标记除外）
type Notification struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	Title     string `gorm:"size:200;not null"`
	Message   string `gorm:"size:1024;not null"`
	Type      string `gorm:"size:30;index;not null;default:'general'"`
	Read      bool   `gorm:"not null;default:false"`
	OrderID   *int64
	ProductID *int64
	ActionURL string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository 通知仓储接口
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// CreateTx 在给定事务中创建，供下单流程保证同一提交
	CreateTx(tx *gorm.DB, n *Notification) error
	ListByUser(ctx context.Context, userID int64) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}
