package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/repository/mysql"
)

func newWishlistTestEnv(t *testing.T) (*gorm.DB, *WishlistService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewWishlistService(
		mysql.NewWishlistRepository(db),
		mysql.NewProductRepository(db),
		NewNotificationService(mysql.NewNotificationRepository(db)),
	)
	return db, svc
}

func TestToggleAddAndRemove(t *testing.T) {
	db, svc := newWishlistTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "aida")
	p := newTestProduct(t, db, "背包", "349.00", 5)

	added, err := svc.Toggle(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, added)

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].Product.ID)

	ids, err := svc.ProductIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ids[p.ID])

	// 再次 toggle 即取消收藏
	added, err = svc.Toggle(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, added)

	list, err = svc.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestToggleDiscountedProductNotifies(t *testing.T) {
	db, svc := newWishlistTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "bert")
	p := newTestProduct(t, db, "风衣", "999.00", 3)
	p.DiscountedPrice = decimal.RequireFromString("699.00")
	require.NoError(t, db.Save(p).Error)

	added, err := svc.Toggle(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, added)

	var notes []*notification.Notification
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeWishlistSale, notes[0].Type)
	require.NotNil(t, notes[0].ProductID)
	assert.Equal(t, p.ID, *notes[0].ProductID)
}

func TestToggleInactiveProduct(t *testing.T) {
	db, svc := newWishlistTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "cleo")
	p := newTestProduct(t, db, "下架品", "100.00", 1)
	require.NoError(t, db.Model(p).Update("active", false).Error)

	_, err := svc.Toggle(ctx, u.ID, p.ID)
	assert.Error(t, err)
}
