package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/mail"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

func main() {
	cfg := config.Load("")

	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)

	giftCardRepo := mysql.NewGiftCardRepository(db)
	notificationRepo := mysql.NewNotificationRepository(db)
	notifier := service.NewNotificationService(notificationRepo)
	mailer := mail.New(&cfg.SMTP)
	giftCardSvc := service.NewGiftCardService(giftCardRepo, notifier, mailer, nil)

	ch, err := mqConn.Channel()
	if err != nil {
		log.Fatalf("failed to open channel: %v", err)
	}
	defer ch.Close()

	if _, err = ch.QueueDeclare(mq.GiftCardDeliveryQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	// 手动确认模式，投递成功才 ack
	msgs, err := ch.Consume(mq.GiftCardDeliveryQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	log.Println("giftcard delivery worker started, waiting for messages...")

	for d := range msgs {
		var task service.DeliveryTask
		if err := json.Unmarshal(d.Body, &task); err != nil {
			log.Printf("invalid message: %v", err)
			// 消息格式错误，拒绝并丢弃
			_ = d.Nack(false, false)
			continue
		}
		handleTask(context.Background(), giftCardSvc, &task, d)
	}
}

func handleTask(ctx context.Context, svc *service.GiftCardService, task *service.DeliveryTask, d amqp.Delivery) {
	// 任务提前到达时等到预约时间再投递。
	// 单消费者串行处理，远期任务睡眠期间会挡住后面的消息。
	// TODO: 改用 RabbitMQ 延迟队列，到期才把任务投进来
	if wait := time.Until(task.DeliverAt); wait > 0 {
		log.Printf("card %d scheduled for %s, waiting %s", task.CardID, task.DeliverAt.Format(time.RFC3339), wait)
		time.Sleep(wait)
	}

	if err := svc.DeliverCard(ctx, task.CardID); err != nil {
		log.Printf("deliver card %d failed: %v", task.CardID, err)
		// 投递失败重新入队，已投递的卡在 DeliverCard 里会被跳过
		_ = d.Nack(false, true)
		return
	}

	log.Printf("card %d delivered", task.CardID)
	if err := d.Ack(false); err != nil {
		log.Printf("failed to ack message: %v", err)
	}
}
