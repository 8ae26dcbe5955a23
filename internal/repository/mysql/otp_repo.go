package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/otp"
)

type otpRepo struct {
	db *gorm.DB
}

// NewOTPRepository 创建验证码仓储
func NewOTPRepository(db *gorm.DB) otp.Repository {
	return &otpRepo{db: db}
}

func (r *otpRepo) Create(ctx context.Context, o *otp.PasswordResetOTP) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *otpRepo) GetByID(ctx context.Context, id int64) (*otp.PasswordResetOTP, error) {
	var o otp.PasswordResetOTP
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *otpRepo) GetActive(ctx context.Context, userID int64, code string) (*otp.PasswordResetOTP, error) {
	var o otp.PasswordResetOTP
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND code = ? AND used = ?", userID, code, false).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *otpRepo) Update(ctx context.Context, o *otp.PasswordResetOTP) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// InvalidateForUser 删除用户所有未使用的验证码，重新发送前调用
func (r *otpRepo) InvalidateForUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND used = ?", userID, false).
		Delete(&otp.PasswordResetOTP{}).Error
}
