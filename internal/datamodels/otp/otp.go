package otp

import (
	"context"
	"time"
)

// PasswordResetOTP 密码重置验证码，单次有效，10 分钟过期
type PasswordResetOTP struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	Code      string    `gorm:"size:6;not null"`
	Used      bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

// IsValid 未使用且未过期
func (o *PasswordResetOTP) IsValid(now time.Time) bool {
	return !o.Used && !now.After(o.ExpiresAt)
}

// Repository 验证码仓储接口
type Repository interface {
	Create(ctx context.Context, o *PasswordResetOTP) error
	GetByID(ctx context.Context, id int64) (*PasswordResetOTP, error)
	GetActive(ctx context.Context, userID int64, code string) (*PasswordResetOTP, error)
	Update(ctx context.Context, o *PasswordResetOTP) error
	InvalidateForUser(ctx context.Context, userID int64) error
}
