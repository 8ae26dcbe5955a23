package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/user"
)

var (
	// ErrInvalidStatus 不认识的订单状态
	ErrInvalidStatus = errors.New("无效的订单状态")
	// ErrStatusTransition 不允许的状态流转
	ErrStatusTransition = errors.New("订单当前状态不允许该操作")
	// ErrCannotDeleteAdmin 管理员账号不允许删除或停用
	ErrCannotDeleteAdmin = errors.New("不能操作管理员账号")
)

// 允许的状态流转表。已完结（delivered / cancelled）的订单不再变化
var statusTransitions = map[string][]string{
	order.StatusPending:    {order.StatusProcessing, order.StatusShipped, order.StatusCancelled},
	order.StatusProcessing: {order.StatusShipped, order.StatusCancelled},
	order.StatusShipped:    {order.StatusDelivered, order.StatusCancelled},
}

func canTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AdminService 后台管理：看板、用户、订单、礼品卡
type AdminService struct {
	userRepo  user.Repository
	orderRepo order.Repository
	notifier  *NotificationService
}

// NewAdminService 创建后台服务
func NewAdminService(userRepo user.Repository, orderRepo order.Repository, notifier *NotificationService) *AdminService {
	return &AdminService{userRepo: userRepo, orderRepo: orderRepo, notifier: notifier}
}

// DashboardStats 看板数据
type DashboardStats struct {
	TotalUsers      int64
	TotalOrders     int64
	OrdersToday     int64
	OrdersThisMonth int64
	TotalRevenue    decimal.Decimal
	RevenueToday    decimal.Decimal
	RevenueMonth    decimal.Decimal
	RecentOrders    []*order.Order
	TopProducts     []*order.TopProduct
}

// Dashboard 汇总看板数据，"今天"、"本月" 按服务器本地时区算
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	ordersToday, err := s.orderRepo.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	ordersMonth, err := s.orderRepo.CountSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	revenueToday, err := s.orderRepo.RevenueSince(ctx, midnight)
	if err != nil {
		return nil, err
	}
	revenueMonth, err := s.orderRepo.RevenueSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	recent, err := s.orderRepo.ListRecent(ctx, 10)
	if err != nil {
		return nil, err
	}
	top, err := s.orderRepo.TopProducts(ctx, 5)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalUsers:      users,
		TotalOrders:     orders,
		OrdersToday:     ordersToday,
		OrdersThisMonth: ordersMonth,
		TotalRevenue:    revenue,
		RevenueToday:    revenueToday,
		RevenueMonth:    revenueMonth,
		RecentOrders:    recent,
		TopProducts:     top,
	}, nil
}

// ListUsers 用户列表
func (s *AdminService) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.ListAll(ctx)
}

// SetUserActive 停用/恢复用户
func (s *AdminService) SetUserActive(ctx context.Context, id int64, active bool) error {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Admin {
		return ErrCannotDeleteAdmin
	}
	u.Active = active
	return s.userRepo.Update(ctx, u)
}

// DeleteUser 删除用户
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Admin {
		return ErrCannotDeleteAdmin
	}
	return s.userRepo.Delete(ctx, id)
}

// ListOrders 全部订单
func (s *AdminService) ListOrders(ctx context.Context) ([]*order.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// OrderItemCounts 每个订单的订单行数，导出用
func (s *AdminService) OrderItemCounts(ctx context.Context) (map[int64]int64, error) {
	return s.orderRepo.ItemCounts(ctx)
}

// GetOrder 订单详情（含订单行）
func (s *AdminService) GetOrder(ctx context.Context, id int64) (*order.Order, []*order.Item, error) {
	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.orderRepo.Items(ctx, o.ID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

// 状态变化对应的买家通知
func statusNotification(o *order.Order, status string) *notification.Notification {
	oid := o.ID
	n := &notification.Notification{
		UserID:    o.UserID,
		OrderID:   &oid,
		ActionURL: fmt.Sprintf("/orders/%d/", o.ID),
	}
	switch status {
	case order.StatusShipped:
		n.Type = notification.TypeOrderShipped
		n.Title = "订单已发货"
		n.Message = fmt.Sprintf("订单 %s 已发货，请留意物流信息。", o.OrderID)
	case order.StatusDelivered:
		n.Type = notification.TypeOrderDelivered
		n.Title = "订单已送达"
		n.Message = fmt.Sprintf("订单 %s 已送达，欢迎评价。", o.OrderID)
	case order.StatusCancelled:
		n.Type = notification.TypeOrderCancelled
		n.Title = "订单已取消"
		n.Message = fmt.Sprintf("订单 %s 已取消。", o.OrderID)
	default:
		return nil
	}
	return n
}

// UpdateOrderStatus 流转订单状态，发货/送达/取消时给买家发通知
func (s *AdminService) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case order.StatusPending, order.StatusProcessing, order.StatusShipped,
		order.StatusDelivered, order.StatusCancelled:
	default:
		return ErrInvalidStatus
	}

	o, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.Status == status {
		return nil
	}
	if !canTransition(o.Status, status) {
		return ErrStatusTransition
	}
	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if n := statusNotification(o, status); n != nil {
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Printf("failed to notify order status user=%d order=%d: %v", o.UserID, o.ID, err)
		}
	}
	return nil
}
