package user

import (
	"context"
	"time"
)

// User 用户模型
type User struct {
	ID        int64     `gorm:"primaryKey"`
	Username  string    `gorm:"uniqueIndex;size:64;not null"`
	Email     string    `gorm:"uniqueIndex;size:128;not null"`
	Password  string    `gorm:"size:255;not null"` // 已加密密码
	Salt      string    `gorm:"size:64"`
	FirstName string    `gorm:"size:64"`
	LastName  string    `gorm:"size:64"`
	Phone     string    `gorm:"size:15"`
	Active    bool      `gorm:"not null;default:true"` // 停用后禁止登录
	Admin     bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName 优先返回姓名，缺省用用户名
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		if u.LastName != "" {
			return u.FirstName + " " + u.LastName
		}
		return u.FirstName
	}
	return u.Username
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int64, error)
}
