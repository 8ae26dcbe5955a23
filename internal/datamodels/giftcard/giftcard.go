package giftcard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// 礼品卡状态：active 可用，redeemed 余额用尽，expired 已过期
const (
	StatusActive   = "active"
	StatusRedeemed = "redeemed"
	StatusExpired  = "expired"
)

// GiftCard 礼品卡，创建后只会被兑换和投递操作修改，从不删除
type GiftCard struct {
	ID               int64           `gorm:"primaryKey"`
	CardNumber       string          `gorm:"uniqueIndex;size:16;not null"` // 16 位数字卡号
	SecurityCode     string          `gorm:"size:6;not null"`              // 6 位安全码，不要求唯一
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null"`  // 面额
	RemainingBalance decimal.Decimal `gorm:"type:decimal(10,2);not null"`  // 余额，0 <= 余额 <= 面额
	RecipientName    string          `gorm:"size:100;not null"`
	RecipientEmail   string          `gorm:"size:128;not null"`
	PersonalMessage  string          `gorm:"size:1024"`
	PurchaserID      *int64          `gorm:"index"` // 未登录购买时为空
	PurchaserEmail   string          `gorm:"size:128"`
	Status           string          `gorm:"size:16;index;not null;default:'active'"`
	ExpiresAt        time.Time       `gorm:"not null"` // 默认创建后 365 天
	DeliveryDate     *time.Time      // 预约投递时间
	Scheduled        bool            `gorm:"not null;default:false"`
	Delivered        bool            `gorm:"not null;default:false"`
	DeliveredAt      *time.Time
	RedeemedAt       *time.Time
	RedeemedBy       *int64 `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsValid 每次调用都重新计算，不缓存任何派生状态
func (g *GiftCard) IsValid(now time.Time) bool {
	return g.Status == StatusActive &&
		g.RemainingBalance.IsPositive() &&
		!now.After(g.ExpiresAt)
}

// FormattedNumber 返回 XXXX-XXXX-XXXX-XXXX 形式的卡号
func (g *GiftCard) FormattedNumber() string {
	n := g.CardNumber
	if len(n) != 16 {
		return n
	}
	return fmt.Sprintf("%s-%s-%s-%s", n[0:4], n[4:8], n[8:12], n[12:16])
}

// MaskedNumber 只露出末四位
func (g *GiftCard) MaskedNumber() string {
	n := g.CardNumber
	if len(n) < 4 {
		return n
	}
	return "XXXX-XXXX-XXXX-" + n[len(n)-4:]
}

// Repository 礼品卡仓储接口
type Repository interface {
	Create(ctx context.Context, g *GiftCard) error
	GetByID(ctx context.Context, id int64) (*GiftCard, error)
	GetByNumberAndCode(ctx context.Context, cardNumber, securityCode string) (*GiftCard, error)
	NumberExists(ctx context.Context, cardNumber string) (bool, error)
	Update(ctx context.Context, g *GiftCard) error
	ListAll(ctx context.Context) ([]*GiftCard, error)
	ListByPurchaser(ctx context.Context, userID int64) ([]*GiftCard, error)
}
