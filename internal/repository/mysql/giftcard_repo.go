package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/giftcard"
)

type giftCardRepo struct {
	db *gorm.DB
}

// NewGiftCardRepository 创建礼品卡仓储
func NewGiftCardRepository(db *gorm.DB) giftcard.Repository {
	return &giftCardRepo{db: db}
}

func (r *giftCardRepo) Create(ctx context.Context, g *giftcard.GiftCard) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *giftCardRepo) GetByID(ctx context.Context, id int64) (*giftcard.GiftCard, error) {
	var g giftcard.GiftCard
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *giftCardRepo) GetByNumberAndCode(ctx context.Context, cardNumber, securityCode string) (*giftcard.GiftCard, error) {
	var g giftcard.GiftCard
	if err := r.db.WithContext(ctx).
		Where("card_number = ? AND security_code = ?", cardNumber, securityCode).
		First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *giftCardRepo) NumberExists(ctx context.Context, cardNumber string) (bool, error) {
	var g giftcard.GiftCard
	err := r.db.WithContext(ctx).
		Select("id").
		Where("card_number = ?", cardNumber).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *giftCardRepo) Update(ctx context.Context, g *giftcard.GiftCard) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *giftCardRepo) ListAll(ctx context.Context) ([]*giftcard.GiftCard, error) {
	var list []*giftcard.GiftCard
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *giftCardRepo) ListByPurchaser(ctx context.Context, userID int64) ([]*giftcard.GiftCard, error) {
	var list []*giftcard.GiftCard
	if err := r.db.WithContext(ctx).
		Where("purchaser_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
