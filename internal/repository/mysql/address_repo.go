package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/address"
)

type addressRepo struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓储
func NewAddressRepository(db *gorm.DB) address.Repository {
	return &addressRepo{db: db}
}

func (r *addressRepo) ListByUser(ctx context.Context, userID int64) ([]*address.Address, error) {
	var list []*address.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("`default` DESC, created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *addressRepo) GetForUser(ctx context.Context, id, userID int64) (*address.Address, error) {
	var a address.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Create 新增地址，若标记默认则先取消同用户其它默认地址
func (r *addressRepo) Create(ctx context.Context, a *address.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Default {
			if err := tx.Model(&address.Address{}).
				Where("user_id = ? AND `default` = ?", a.UserID, true).
				Update("default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

// Update 更新地址，默认标记的互斥逻辑与 Create 相同
func (r *addressRepo) Update(ctx context.Context, a *address.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.Default {
			if err := tx.Model(&address.Address{}).
				Where("user_id = ? AND id <> ? AND `default` = ?", a.UserID, a.ID, true).
				Update("default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(a).Error
	})
}

func (r *addressRepo) Delete(ctx context.Context, id, userID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&address.Address{}).Error
}
