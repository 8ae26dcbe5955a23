package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/repository/mysql"
)

func newOrderTestEnv(t *testing.T) (*gorm.DB, *OrderService) {
	t.Helper()
	db := newTestDB(t)
	svc := NewOrderService(
		db,
		mysql.NewCartRepository(db),
		mysql.NewAddressRepository(db),
		mysql.NewOrderRepository(db),
		NewNotificationService(mysql.NewNotificationRepository(db)),
	)
	return db, svc
}

func fillCart(t *testing.T, db *gorm.DB, userID int64, items map[int64]int64) {
	t.Helper()
	c := &cart.Cart{UserID: userID}
	mustCreate(t, db, c)
	for pid, qty := range items {
		mustCreate(t, db, &cart.Item{CartID: c.ID, ProductID: pid, Quantity: qty})
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	db, svc := newOrderTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "alice")
	p1 := newTestProduct(t, db, "键盘", "199.00", 10)
	p2 := newTestProduct(t, db, "鼠标", "99.00", 5)
	// 鼠标打折，下单应按折后价
	p2.DiscountedPrice = decimal.RequireFromString("79.00")
	require.NoError(t, db.Save(p2).Error)

	addr := &address.Address{
		UserID:   u.ID,
		FullName: "Alice Wang",
		Phone:    "13800000000",
		Line1:    "1 Main St",
		City:     "Hangzhou",
		State:    "ZJ",
		Pincode:  "310000",
		Default:  true,
	}
	mustCreate(t, db, addr)

	fillCart(t, db, u.ID, map[int64]int64{p1.ID: 2, p2.ID: 1})

	o, err := svc.PlaceOrder(ctx, u.ID, PlaceOrderInput{AddressID: addr.ID})
	require.NoError(t, err)

	// 订单号格式与金额
	assert.True(t, strings.HasPrefix(o.OrderID, "FK"))
	assert.Len(t, o.OrderID, 10)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("477.00")),
		"total = 2*199 + 79, got %s", o.TotalAmount)
	assert.Equal(t, addr.ShippingText(), o.ShippingAddress)
	assert.Equal(t, addr.Phone, o.Phone)

	// 库存已扣减
	var got product.Product
	require.NoError(t, db.First(&got, p1.ID).Error)
	assert.Equal(t, int64(8), got.Stock)
	var got2 product.Product
	require.NoError(t, db.First(&got2, p2.ID).Error)
	assert.Equal(t, int64(4), got2.Stock)

	// 购物车已清空
	var itemCount int64
	require.NoError(t, db.Model(&cart.Item{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	// 订单行带价格快照
	var lines []*order.Item
	require.NoError(t, db.Where("order_id = ?", o.ID).Order("id").Find(&lines).Error)
	require.Len(t, lines, 2)
	assert.Equal(t, "键盘", lines[0].Name)
	assert.True(t, lines[1].Price.Equal(decimal.RequireFromString("79.00")))

	// 下单通知已写入
	var notes []*notification.Notification
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeOrderPlaced, notes[0].Type)
	require.NotNil(t, notes[0].OrderID)
	assert.Equal(t, o.ID, *notes[0].OrderID)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	db, svc := newOrderTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "bob")
	p1 := newTestProduct(t, db, "键盘", "199.00", 10)
	p2 := newTestProduct(t, db, "显示器", "999.00", 1)
	fillCart(t, db, u.ID, map[int64]int64{p1.ID: 1, p2.ID: 3})

	_, err := svc.PlaceOrder(ctx, u.ID, PlaceOrderInput{CustomAddress: "somewhere", Phone: "13800000000"})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "显示器", stockErr.ProductName)
	assert.Equal(t, int64(1), stockErr.Stock)

	// 整单回滚：库存不变、无订单、购物车保留
	var got product.Product
	require.NoError(t, db.First(&got, p1.ID).Error)
	assert.Equal(t, int64(10), got.Stock)

	var orderCount, itemCount int64
	require.NoError(t, db.Model(&order.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
	require.NoError(t, db.Model(&cart.Item{}).Count(&itemCount).Error)
	assert.Equal(t, int64(2), itemCount)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	db, svc := newOrderTestEnv(t)
	u := newTestUser(t, db, "carol")
	fillCart(t, db, u.ID, nil)

	_, err := svc.PlaceOrder(context.Background(), u.ID, PlaceOrderInput{CustomAddress: "x", Phone: "1"})
	assert.True(t, errors.Is(err, ErrCartEmpty))
}

func TestPlaceOrderAddressRequired(t *testing.T) {
	db, svc := newOrderTestEnv(t)
	u := newTestUser(t, db, "dave")
	p := newTestProduct(t, db, "键盘", "199.00", 10)
	fillCart(t, db, u.ID, map[int64]int64{p.ID: 1})

	_, err := svc.PlaceOrder(context.Background(), u.ID, PlaceOrderInput{})
	assert.True(t, errors.Is(err, ErrAddressRequired))
}

func TestPlaceOrderCustomAddressSaved(t *testing.T) {
	db, svc := newOrderTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "erin")
	p := newTestProduct(t, db, "键盘", "199.00", 10)
	fillCart(t, db, u.ID, map[int64]int64{p.ID: 1})

	o, err := svc.PlaceOrder(ctx, u.ID, PlaceOrderInput{
		CustomAddress: "2 Side St\nSuzhou",
		Phone:         "13900000000",
		FullName:      "Erin Zhao",
		SaveAddress:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2 Side St\nSuzhou", o.ShippingAddress)

	var addrs []*address.Address
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&addrs).Error)
	require.Len(t, addrs, 1)
	assert.Equal(t, "Erin Zhao", addrs[0].FullName)
	assert.Equal(t, "2 Side St", addrs[0].Line1)
}

func TestCheckoutView(t *testing.T) {
	db, svc := newOrderTestEnv(t)
	ctx := context.Background()

	u := newTestUser(t, db, "frank")
	p := newTestProduct(t, db, "键盘", "199.00", 10)
	fillCart(t, db, u.ID, map[int64]int64{p.ID: 2})

	addr := &address.Address{
		UserID: u.ID, FullName: "Frank", Phone: "1", Line1: "a", Default: true,
	}
	mustCreate(t, db, addr)

	view, err := svc.Checkout(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.GrandTotal.Equal(decimal.RequireFromString("398.00")))
	require.NotNil(t, view.DefaultAddress)
	assert.Equal(t, addr.ID, view.DefaultAddress.ID)
}
