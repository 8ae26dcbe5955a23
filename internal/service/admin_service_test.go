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

	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/repository/mysql"
)

func newAdminTestEnv(t *testing.T) (*gorm.DB, *AdminService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewAdminService(
		mysql.NewUserRepository(db),
		mysql.NewOrderRepository(db),
		NewNotificationService(mysql.NewNotificationRepository(db)),
	)
	return db, svc
}

func newTestOrder(t *testing.T, db *gorm.DB, userID int64, orderID, status, amount string) *order.Order {
	t.Helper()
	o := &order.Order{
		OrderID:         orderID,
		UserID:          userID,
		Status:          status,
		TotalAmount:     decimal.RequireFromString(amount),
		ShippingAddress: "somewhere",
	}
	mustCreate(t, db, o)
	return o
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	db, svc := newAdminTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "vera")
	o := newTestOrder(t, db, u.ID, "FK00000001", order.StatusPending, "100.00")

	require.NoError(t, svc.UpdateOrderStatus(ctx, o.ID, order.StatusProcessing))
	require.NoError(t, svc.UpdateOrderStatus(ctx, o.ID, order.StatusShipped))
	require.NoError(t, svc.UpdateOrderStatus(ctx, o.ID, order.StatusDelivered))

	// 已完结订单不能再动
	err := svc.UpdateOrderStatus(ctx, o.ID, order.StatusCancelled)
	assert.True(t, errors.Is(err, ErrStatusTransition))

	// 发货与送达各发过一条通知
	var notes []*notification.Notification
	require.NoError(t, db.Where("user_id = ?", u.ID).Order("id").Find(&notes).Error)
	require.Len(t, notes, 2)
	assert.Equal(t, notification.TypeOrderShipped, notes[0].Type)
	assert.Equal(t, notification.TypeOrderDelivered, notes[1].Type)
}

func TestUpdateOrderStatusInvalid(t *testing.T) {
	db, svc := newAdminTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "wang")
	o := newTestOrder(t, db, u.ID, "FK00000002", order.StatusPending, "100.00")

	err := svc.UpdateOrderStatus(ctx, o.ID, "refunded")
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	// delivered 不能从 pending 直接到
	err = svc.UpdateOrderStatus(ctx, o.ID, order.StatusDelivered)
	assert.True(t, errors.Is(err, ErrStatusTransition))

	// 同状态幂等
	require.NoError(t, svc.UpdateOrderStatus(ctx, o.ID, order.StatusPending))
}

func TestCancelNotifiesBuyer(t *testing.T) {
	db, svc := newAdminTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "xia")
	o := newTestOrder(t, db, u.ID, "FK00000003", order.StatusPending, "100.00")

	require.NoError(t, svc.UpdateOrderStatus(ctx, o.ID, order.StatusCancelled))

	var notes []*notification.Notification
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeOrderCancelled, notes[0].Type)
}

func TestDashboard(t *testing.T) {
	db, svc := newAdminTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "yan")
	newTestOrder(t, db, u.ID, "FK00000004", order.StatusDelivered, "150.00")
	newTestOrder(t, db, u.ID, "FK00000005", order.StatusPending, "50.00")

	// 一笔昨天的订单
	old := newTestOrder(t, db, u.ID, "FK00000006", order.StatusDelivered, "30.00")
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	stats, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.OrdersToday)
	// 昨天的订单可能跨月，本月数只做下界断言
	assert.GreaterOrEqual(t, stats.OrdersThisMonth, int64(2))
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("230.00")))
	assert.True(t, stats.RevenueToday.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, stats.RevenueMonth.GreaterThanOrEqual(decimal.RequireFromString("200.00")))
	assert.Len(t, stats.RecentOrders, 3)
}

func TestUserAdministration(t *testing.T) {
	db, svc := newAdminTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "zack")
	admin := newTestUser(t, db, "root")
	require.NoError(t, db.Model(admin).Update("admin", true).Error)

	require.NoError(t, svc.SetUserActive(ctx, u.ID, false))
	got, err := mysql.NewUserRepository(db).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	// 管理员账号不能停用或删除
	err = svc.SetUserActive(ctx, admin.ID, false)
	assert.True(t, errors.Is(err, ErrCannotDeleteAdmin))
	err = svc.DeleteUser(ctx, admin.ID)
	assert.True(t, errors.Is(err, ErrCannotDeleteAdmin))

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	_, err = mysql.NewUserRepository(db).GetByID(ctx, u.ID)
	assert.Error(t, err)
}
