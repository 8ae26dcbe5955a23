package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/giftcard"
	"github.com/example/goshop/internal/repository/mysql"
)

func newGiftCardTestEnv(t *testing.T) (*gorm.DB, *GiftCardService, *mockMailer, *mockPublisher) {
	t.Helper()
	db := newTestDB(t)
	mailer := &mockMailer{}
	publisher := &mockPublisher{}
	svc := NewGiftCardService(
		mysql.NewGiftCardRepository(db),
		NewNotificationService(mysql.NewNotificationRepository(db)),
		mailer,
		publisher,
	)
	return db, svc, mailer, publisher
}

func TestPurchaseImmediateDelivery(t *testing.T) {
	db, svc, mailer, publisher := newGiftCardTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "grace")
	uid := u.ID
	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("500.00"),
		RecipientName:  "小明",
		RecipientEmail: "ming@example.com",
		PurchaserID:    &uid,
	})
	require.NoError(t, err)

	assert.Len(t, g.CardNumber, 16)
	assert.Len(t, g.SecurityCode, 6)
	assert.Equal(t, giftcard.StatusActive, g.Status)
	assert.True(t, g.RemainingBalance.Equal(g.Amount))
	assert.True(t, g.Delivered)
	require.NotNil(t, g.DeliveredAt)
	assert.False(t, g.Scheduled)
	assert.Empty(t, publisher.tasks)

	// 邮件发给收件人且带完整卡号
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ming@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, g.FormattedNumber())
	assert.Contains(t, mailer.sent[0].Body, g.SecurityCode)
}

func TestPurchaseAmountBounds(t *testing.T) {
	_, svc, _, _ := newGiftCardTestEnv(t)
	ctx := context.Background()

	for _, amount := range []string{"99.99", "50000.01", "0"} {
		_, err := svc.Purchase(ctx, PurchaseInput{
			Amount:         decimal.RequireFromString(amount),
			RecipientName:  "x",
			RecipientEmail: "x@example.com",
		})
		assert.True(t, errors.Is(err, ErrCardAmountInvalid), "amount %s", amount)
	}
}

func TestPurchaseScheduledDelivery(t *testing.T) {
	_, svc, mailer, publisher := newGiftCardTestEnv(t)
	ctx := context.Background()

	deliverAt := time.Now().Add(48 * time.Hour)
	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("200.00"),
		RecipientName:  "小红",
		RecipientEmail: "hong@example.com",
		DeliveryDate:   &deliverAt,
	})
	require.NoError(t, err)

	// 预约投递：不发邮件，只发一条投递任务
	assert.True(t, g.Scheduled)
	assert.False(t, g.Delivered)
	assert.Empty(t, mailer.sent)
	require.Len(t, publisher.tasks, 1)
	assert.Equal(t, g.ID, publisher.tasks[0].CardID)
	assert.True(t, publisher.tasks[0].DeliverAt.Equal(deliverAt))
}

func TestPurchaseMailFailureKeepsCard(t *testing.T) {
	db, svc, mailer, _ := newGiftCardTestEnv(t)
	mailer.fail = true

	g, err := svc.Purchase(context.Background(), PurchaseInput{
		Amount:         decimal.RequireFromString("300.00"),
		RecipientName:  "x",
		RecipientEmail: "x@example.com",
	})
	require.ErrorIs(t, err, ErrCardDeliveryFailed)
	require.NotNil(t, g)

	// 卡已入库且未盖投递章，后续可以重试
	var saved giftcard.GiftCard
	require.NoError(t, db.First(&saved, g.ID).Error)
	assert.False(t, saved.Delivered)
}

func TestDeliverCardIdempotent(t *testing.T) {
	db, svc, mailer, _ := newGiftCardTestEnv(t)
	ctx := context.Background()

	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("100.00"),
		RecipientName:  "x",
		RecipientEmail: "x@example.com",
	})
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)

	// 重复投递（模拟 worker 重复消费）不再发邮件
	require.NoError(t, svc.DeliverCard(ctx, g.ID))
	assert.Len(t, mailer.sent, 1)

	var saved giftcard.GiftCard
	require.NoError(t, db.First(&saved, g.ID).Error)
	assert.True(t, saved.Delivered)
}

func TestRedeemPartialAndFull(t *testing.T) {
	db, svc, _, _ := newGiftCardTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "henry")
	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("500.00"),
		RecipientName:  "x",
		RecipientEmail: "x@example.com",
	})
	require.NoError(t, err)

	res, err := svc.Redeem(ctx, g.CardNumber, g.SecurityCode, decimal.RequireFromString("200.00"), u.ID)
	require.NoError(t, err)
	assert.True(t, res.Balance.Equal(decimal.RequireFromString("300.00")))
	assert.Equal(t, giftcard.StatusActive, res.Card.Status)

	// 扣光余额后整卡转 redeemed 并记录兑换人
	res, err = svc.Redeem(ctx, g.CardNumber, g.SecurityCode, decimal.RequireFromString("300.00"), u.ID)
	require.NoError(t, err)
	assert.True(t, res.Balance.IsZero())
	assert.Equal(t, giftcard.StatusRedeemed, res.Card.Status)
	require.NotNil(t, res.Card.RedeemedBy)
	assert.Equal(t, u.ID, *res.Card.RedeemedBy)
	require.NotNil(t, res.Card.RedeemedAt)

	// 用尽的卡不能再兑换
	_, err = svc.Redeem(ctx, g.CardNumber, g.SecurityCode, decimal.RequireFromString("1.00"), u.ID)
	assert.True(t, errors.Is(err, ErrCardInvalid))
}

func TestRedeemErrors(t *testing.T) {
	db, svc, _, _ := newGiftCardTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "iris")
	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("100.00"),
		RecipientName:  "x",
		RecipientEmail: "x@example.com",
	})
	require.NoError(t, err)

	// 安全码不对
	_, err = svc.Redeem(ctx, g.CardNumber, "000000", decimal.RequireFromString("10.00"), u.ID)
	if g.SecurityCode != "000000" {
		assert.True(t, errors.Is(err, ErrCardNotFound))
	}

	// 金额必须为正
	_, err = svc.Redeem(ctx, g.CardNumber, g.SecurityCode, decimal.Zero, u.ID)
	assert.True(t, errors.Is(err, ErrRedeemAmountInvalid))

	// 超余额
	_, err = svc.Redeem(ctx, g.CardNumber, g.SecurityCode, decimal.RequireFromString("100.01"), u.ID)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
}

func TestRedeemExpiredCard(t *testing.T) {
	db, svc, _, _ := newGiftCardTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "jack")
	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("100.00"),
		RecipientName:  "x",
		RecipientEmail: "x@example.com",
	})
	require.NoError(t, err)

	// 直接把有效期改成过去
	require.NoError(t, db.Model(&giftcard.GiftCard{}).
		Where("id = ?", g.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = svc.Redeem(ctx, g.CardNumber, g.SecurityCode, decimal.RequireFromString("10.00"), u.ID)
	assert.True(t, errors.Is(err, ErrCardInvalid))
}

func TestCheckBalance(t *testing.T) {
	_, svc, _, _ := newGiftCardTestEnv(t)
	ctx := context.Background()

	g, err := svc.Purchase(ctx, PurchaseInput{
		Amount:         decimal.RequireFromString("250.00"),
		RecipientName:  "x",
		RecipientEmail: "x@example.com",
	})
	require.NoError(t, err)

	res, err := svc.CheckBalance(ctx, g.CardNumber, g.SecurityCode)
	require.NoError(t, err)
	assert.True(t, res.Balance.Equal(decimal.RequireFromString("250.00")))
	assert.True(t, res.Valid)
	assert.Equal(t, g.MaskedNumber(), res.MaskedNumber)

	_, err = svc.CheckBalance(ctx, "0000000000000000", "123456")
	assert.True(t, errors.Is(err, ErrCardNotFound))
}
