package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/datamodels/giftcard"
	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/mail"
)

var (
	// ErrCardAmountInvalid 面额超出允许区间
	ErrCardAmountInvalid = errors.New("礼品卡面额需在 100 到 50000 之间")
	// ErrCardNumberExhausted 连续生成卡号都撞号，放弃
	ErrCardNumberExhausted = errors.New("暂时无法生成卡号，请稍后重试")
	// ErrCardNotFound 卡号或安全码不对
	ErrCardNotFound = errors.New("卡号或安全码不正确")
	// ErrCardInvalid 卡已失效（过期、余额用尽或被停用）
	ErrCardInvalid = errors.New("礼品卡已失效")
	// ErrRedeemAmountInvalid 兑换金额非法
	ErrRedeemAmountInvalid = errors.New("兑换金额必须大于 0")
	// ErrInsufficientBalance 余额不够本次兑换
	ErrInsufficientBalance = errors.New("礼品卡余额不足")
	// ErrCardDeliveryFailed 卡已生成但邮件没发出去
	ErrCardDeliveryFailed = errors.New("礼品卡已生成，但邮件发送失败")
)

// 面额上下限
var (
	minCardAmount = decimal.NewFromInt(100)
	maxCardAmount = decimal.NewFromInt(50000)
)

const (
	cardNumberLen      = 16
	securityCodeLen    = 6
	cardValidityDays   = 365
	cardNumberAttempts = 10
)

// DeliveryTask 投递任务，经 MQ 传给投递 worker
type DeliveryTask struct {
	CardID    int64     `json:"card_id"`
	DeliverAt time.Time `json:"deliver_at"`
}

// DeliveryPublisher 把预约投递任务丢进队列
type DeliveryPublisher interface {
	PublishDelivery(ctx context.Context, task *DeliveryTask) error
}

// AMQPDeliveryPublisher 基于 RabbitMQ 的投递发布器
type AMQPDeliveryPublisher struct {
	conn *amqp.Connection
}

// NewAMQPDeliveryPublisher 创建发布器
func NewAMQPDeliveryPublisher(conn *amqp.Connection) *AMQPDeliveryPublisher {
	return &AMQPDeliveryPublisher{conn: conn}
}

func (p *AMQPDeliveryPublisher) PublishDelivery(ctx context.Context, task *DeliveryTask) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// 队列声明成持久化，进程重启不丢任务
	q, err := ch.QueueDeclare(mq.GiftCardDeliveryQueue, true, false, false, false, nil)
	if err != nil {
		return err
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", q.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// GiftCardService 礼品卡购买、投递、兑换
type GiftCardService struct {
	repo      giftcard.Repository
	notifier  *NotificationService
	mailer    mail.Mailer
	publisher DeliveryPublisher
}

// NewGiftCardService 创建礼品卡服务
func NewGiftCardService(
	repo giftcard.Repository,
	notifier *NotificationService,
	mailer mail.Mailer,
	publisher DeliveryPublisher,
) *GiftCardService {
	return &GiftCardService{
		repo:      repo,
		notifier:  notifier,
		mailer:    mailer,
		publisher: publisher,
	}
}

// PurchaseInput 购买表单。PurchaserID 为空表示游客购买
type PurchaseInput struct {
	Amount          decimal.Decimal
	RecipientName   string
	RecipientEmail  string
	PersonalMessage string
	PurchaserID     *int64
	PurchaserEmail  string
	DeliveryDate    *time.Time
}

// newCardNumber 生成未被占用的 16 位卡号，撞号重试有限次
func (s *GiftCardService) newCardNumber(ctx context.Context) (string, error) {
	for i := 0; i < cardNumberAttempts; i++ {
		n := randomDigits(cardNumberLen)
		exists, err := s.repo.NumberExists(ctx, n)
		if err != nil {
			return "", err
		}
		if !exists {
			return n, nil
		}
	}
	return "", ErrCardNumberExhausted
}

// Purchase 购买礼品卡。未指定投递时间（或时间已过）立即投递；
// 指定了未来时间则只入库并发一条预约任务给 worker。
// 立即投递时邮件失败卡仍然保留，返回 ErrCardDeliveryFailed。
func (s *GiftCardService) Purchase(ctx context.Context, in PurchaseInput) (*giftcard.GiftCard, error) {
	if in.Amount.LessThan(minCardAmount) || in.Amount.GreaterThan(maxCardAmount) {
		return nil, ErrCardAmountInvalid
	}

	number, err := s.newCardNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	g := &giftcard.GiftCard{
		CardNumber:       number,
		SecurityCode:     randomDigits(securityCodeLen),
		Amount:           in.Amount,
		RemainingBalance: in.Amount,
		RecipientName:    in.RecipientName,
		RecipientEmail:   in.RecipientEmail,
		PersonalMessage:  in.PersonalMessage,
		PurchaserID:      in.PurchaserID,
		PurchaserEmail:   in.PurchaserEmail,
		Status:           giftcard.StatusActive,
		ExpiresAt:        now.AddDate(0, 0, cardValidityDays),
	}

	scheduled := in.DeliveryDate != nil && in.DeliveryDate.After(now)
	if scheduled {
		g.Scheduled = true
		g.DeliveryDate = in.DeliveryDate
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}

	if scheduled {
		if err := s.publisher.PublishDelivery(ctx, &DeliveryTask{
			CardID:    g.ID,
			DeliverAt: *g.DeliveryDate,
		}); err != nil {
			// 卡已入库，投递任务丢了只能靠日志追
			log.Printf("failed to publish gift card delivery task card=%d: %v", g.ID, err)
			return g, err
		}
		return g, nil
	}

	if err := s.DeliverCard(ctx, g.ID); err != nil {
		return g, ErrCardDeliveryFailed
	}
	return g, nil
}

// DeliverCard 把卡发给收件人并盖投递章。已投递的卡直接跳过，
// 保证 worker 重复消费不会重复发邮件。
func (s *GiftCardService) DeliverCard(ctx context.Context, cardID int64) error {
	g, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if g.Delivered {
		return nil
	}

	body := fmt.Sprintf(
		"%s 您好：\n\n您收到一张礼品卡！\n\n卡号：%s\n安全码：%s\n面额：￥%s\n有效期至：%s\n",
		g.RecipientName,
		g.FormattedNumber(),
		g.SecurityCode,
		g.Amount.StringFixed(2),
		g.ExpiresAt.Format("2006-01-02"),
	)
	if g.PersonalMessage != "" {
		body += fmt.Sprintf("\n留言：%s\n", g.PersonalMessage)
	}
	if err := s.mailer.Send(g.RecipientEmail, "您收到一张礼品卡", body); err != nil {
		return err
	}

	now := time.Now()
	g.Delivered = true
	g.DeliveredAt = &now
	if err := s.repo.Update(ctx, g); err != nil {
		return err
	}

	if g.PurchaserID != nil {
		if err := s.notifier.Notify(ctx, &notification.Notification{
			UserID:  *g.PurchaserID,
			Title:   "礼品卡已送达",
			Message: fmt.Sprintf("您购买的礼品卡（%s）已发送给 %s。", g.MaskedNumber(), g.RecipientEmail),
			Type:    notification.TypeGeneral,
		}); err != nil {
			log.Printf("failed to notify purchaser user=%d card=%d: %v", *g.PurchaserID, g.ID, err)
		}
	}
	return nil
}

// RedeemResult 兑换结果
type RedeemResult struct {
	Card     *giftcard.GiftCard
	Redeemed decimal.Decimal
	Balance  decimal.Decimal
}

// Redeem 从卡里扣掉一笔金额。余额只减不增，扣到 0 整卡转 redeemed。
func (s *GiftCardService) Redeem(ctx context.Context, cardNumber, securityCode string, amount decimal.Decimal, userID int64) (*RedeemResult, error) {
	if !amount.IsPositive() {
		return nil, ErrRedeemAmountInvalid
	}

	g, err := s.repo.GetByNumberAndCode(ctx, cardNumber, securityCode)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	if !g.IsValid(time.Now()) {
		return nil, ErrCardInvalid
	}
	if amount.GreaterThan(g.RemainingBalance) {
		return nil, ErrInsufficientBalance
	}

	g.RemainingBalance = g.RemainingBalance.Sub(amount)
	if g.RemainingBalance.IsZero() {
		now := time.Now()
		g.Status = giftcard.StatusRedeemed
		g.RedeemedAt = &now
		g.RedeemedBy = &userID
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, &notification.Notification{
		UserID:  userID,
		Title:   "礼品卡兑换成功",
		Message: fmt.Sprintf("已从礼品卡 %s 兑换 ￥%s，剩余 ￥%s。", g.MaskedNumber(), amount.StringFixed(2), g.RemainingBalance.StringFixed(2)),
		Type:    notification.TypeGeneral,
	}); err != nil {
		log.Printf("failed to notify redeemer user=%d card=%d: %v", userID, g.ID, err)
	}

	return &RedeemResult{Card: g, Redeemed: amount, Balance: g.RemainingBalance}, nil
}

// BalanceResult 余额查询结果
type BalanceResult struct {
	MaskedNumber string
	Balance      decimal.Decimal
	Status       string
	ExpiresAt    time.Time
	Valid        bool
}

// CheckBalance 凭卡号和安全码查余额，不要求登录
func (s *GiftCardService) CheckBalance(ctx context.Context, cardNumber, securityCode string) (*BalanceResult, error) {
	g, err := s.repo.GetByNumberAndCode(ctx, cardNumber, securityCode)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &BalanceResult{
		MaskedNumber: g.MaskedNumber(),
		Balance:      g.RemainingBalance,
		Status:       g.Status,
		ExpiresAt:    g.ExpiresAt,
		Valid:        g.IsValid(time.Now()),
	}, nil
}

// ListAll 后台礼品卡列表
func (s *GiftCardService) ListAll(ctx context.Context) ([]*giftcard.GiftCard, error) {
	return s.repo.ListAll(ctx)
}

// ListByPurchaser 用户自己买过的卡
func (s *GiftCardService) ListByPurchaser(ctx context.Context, userID int64) ([]*giftcard.GiftCard, error) {
	return s.repo.ListByPurchaser(ctx, userID)
}
