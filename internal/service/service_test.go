package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/mysql"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := mysql.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func newTestUser(t *testing.T, db *gorm.DB, username string) *user.User {
	t.Helper()
	u := &user.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Active:   true,
	}
	mustCreate(t, db, u)
	return u
}

func newTestProduct(t *testing.T, db *gorm.DB, name string, price string, stock int64) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	mustCreate(t, db, p)
	return p
}

// mockMailer 记录发出的邮件，可模拟发送失败
type mockMailer struct {
	sent []sentMail
	fail bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *mockMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// mockPublisher 记录投递任务，可模拟发布失败
type mockPublisher struct {
	tasks []*DeliveryTask
	fail  bool
}

func (m *mockPublisher) PublishDelivery(ctx context.Context, task *DeliveryTask) error {
	if m.fail {
		return errors.New("mq unavailable")
	}
	m.tasks = append(m.tasks, task)
	return nil
}
