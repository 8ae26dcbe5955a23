package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
)

var (
	// ErrCartEmpty 购物车为空
	ErrCartEmpty = errors.New("购物车是空的")
	// ErrAddressRequired 既没选地址也没填地址
	ErrAddressRequired = errors.New("请选择收货地址或填写新地址")
	// ErrAddressNotFound 选中的地址不存在
	ErrAddressNotFound = errors.New("选中的地址不存在")
)

// InsufficientStockError 某件商品库存不够，整单失败
type InsufficientStockError struct {
	ProductName string
	Stock       int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s 库存不足，仅剩 %d 件", e.ProductName, e.Stock)
}

// OrderService 结算与下单
type OrderService struct {
	db        *gorm.DB
	cartRepo  cart.Repository
	addrRepo  address.Repository
	orderRepo order.Repository
	notifier  *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	cartRepo cart.Repository,
	addrRepo address.Repository,
	orderRepo order.Repository,
	notifier *NotificationService,
) *OrderService {
	return &OrderService{
		db:        db,
		cartRepo:  cartRepo,
		addrRepo:  addrRepo,
		orderRepo: orderRepo,
		notifier:  notifier,
	}
}

// CheckoutView 结算页数据
type CheckoutView struct {
	Items          []*cart.ItemWithProduct
	GrandTotal     decimal.Decimal
	Addresses      []*address.Address
	DefaultAddress *address.Address
}

// Checkout 结算页：购物车内容 + 可选地址
func (s *OrderService) Checkout(ctx context.Context, userID int64) (*CheckoutView, error) {
	c, err := s.cartRepo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ItemsWithProducts(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	addrs, err := s.addrRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CheckoutView{
		Items:      items,
		GrandTotal: cart.TotalPrice(items),
		Addresses:  addrs,
	}
	for _, a := range addrs {
		if a.Default {
			view.DefaultAddress = a
			break
		}
	}
	return view, nil
}

// PlaceOrderInput 下单表单：二选一，优先已保存地址
type PlaceOrderInput struct {
	AddressID     int64
	CustomAddress string
	Phone         string
	FullName      string
	SaveAddress   bool
}

// newOrderID 订单号：FK + 8 位大写十六进制
func newOrderID() string {
	u := uuid.New()
	return "FK" + strings.ToUpper(hex.EncodeToString(u[:4]))
}

// PlaceOrder 下单。整个流程在一个事务里：
// 校验库存（条件扣减，扣不动即库存不足）、解析地址快照、建订单和订单行、
// 清空购物车、写下单通知。任何一步失败全部回滚。
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (*order.Order, error) {
	var created *order.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 重新读购物车
		var c cart.Cart
		if err := tx.Where("user_id = ?", userID).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartEmpty
			}
			return err
		}
		var items []*cart.Item
		if err := tx.Where("cart_id = ?", c.ID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		// 2) 解析收货快照
		shipping, phone, err := s.resolveShipping(tx, userID, in)
		if err != nil {
			return err
		}

		// 3) 逐件条件扣库存并生成订单行，单价取当时的成交价
		total := decimal.Zero
		orderItems := make([]*order.Item, 0, len(items))
		for _, it := range items {
			var p product.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				return err
			}

			// 扣减和校验合成一条 UPDATE，并发下单不会超卖
			res := tx.Model(&product.Product{}).
				Where("id = ? AND stock >= ?", p.ID, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{ProductName: p.Name, Stock: p.Stock}
			}

			price := p.SellingPrice()
			total = total.Add(price.Mul(decimal.NewFromInt(it.Quantity)))
			orderItems = append(orderItems, &order.Item{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  it.Quantity,
				Price:     price,
			})
		}

		// 4) 建订单
		o := &order.Order{
			OrderID:         newOrderID(),
			UserID:          userID,
			Status:          order.StatusPending,
			TotalAmount:     total,
			ShippingAddress: shipping,
			Phone:           phone,
		}
		if err := s.orderRepo.CreateTx(tx, o, orderItems); err != nil {
			return err
		}

		// 5) 清空购物车
		if err := tx.Where("cart_id = ?", c.ID).Delete(&cart.Item{}).Error; err != nil {
			return err
		}

		// 6) 下单通知和订单同一事务提交
		oid := o.ID
		if err := s.notifier.NotifyTx(tx, &notification.Notification{
			UserID:    userID,
			Title:     "下单成功！",
			Message:   fmt.Sprintf("订单 %s 已提交，合计 ￥%s。", o.OrderID, o.TotalAmount.StringFixed(2)),
			Type:      notification.TypeOrderPlaced,
			OrderID:   &oid,
			ActionURL: fmt.Sprintf("/orders/%d/", o.ID),
		}); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveShipping 已保存地址格式化成快照文本，否则用手填地址
func (s *OrderService) resolveShipping(tx *gorm.DB, userID int64, in PlaceOrderInput) (string, string, error) {
	if in.AddressID > 0 {
		var a address.Address
		err := tx.Where("id = ? AND user_id = ?", in.AddressID, userID).First(&a).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrAddressNotFound
		}
		if err != nil {
			return "", "", err
		}
		return a.ShippingText(), a.Phone, nil
	}

	custom := strings.TrimSpace(in.CustomAddress)
	if custom == "" {
		return "", "", ErrAddressRequired
	}

	// 顺手保存为新地址（城市等字段留空，后续可编辑）
	if in.SaveAddress && in.FullName != "" && in.Phone != "" {
		parts := strings.SplitN(custom, "\n", 2)
		a := &address.Address{
			UserID:   userID,
			FullName: in.FullName,
			Phone:    in.Phone,
			Line1:    parts[0],
		}
		if len(parts) > 1 {
			a.Line2 = strings.TrimSpace(parts[1])
		}
		if err := tx.Create(a).Error; err != nil {
			return "", "", err
		}
	}

	return custom, in.Phone, nil
}

// GetForUser 用户查看自己的订单
func (s *OrderService) GetForUser(ctx context.Context, id, userID int64) (*order.Order, []*order.Item, error) {
	o, err := s.orderRepo.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.orderRepo.Items(ctx, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

// ListByUser 用户订单列表
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}
