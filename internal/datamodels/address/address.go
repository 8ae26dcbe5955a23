package address

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Address 收货地址，每个用户最多一个默认地址
type Address struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	FullName  string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:15;not null"`
	Line1     string `gorm:"size:255;not null"`
	Line2     string `gorm:"size:255"`
	City      string `gorm:"size:100"`
	State     string `gorm:"size:100"`
	Pincode   string `gorm:"size:10"`
	Default   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// ShippingText 格式化为订单上的收货快照文本
func (a *Address) ShippingText() string {
	var b strings.Builder
	b.WriteString(a.FullName)
	b.WriteString("\n")
	b.WriteString(a.Line1)
	if a.Line2 != "" {
		b.WriteString("\n")
		b.WriteString(a.Line2)
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s, %s - %s", a.City, a.State, a.Pincode))
	return b.String()
}

// Repository 地址仓储接口，写入默认地址时负责取消同用户的其它默认标记
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]*Address, error)
	GetForUser(ctx context.Context, id, userID int64) (*Address, error)
	Create(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id, userID int64) error
}
