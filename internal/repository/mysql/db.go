package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/address"
	"github.com/example/goshop/internal/datamodels/cart"
	"github.com/example/goshop/internal/datamodels/giftcard"
	"github.com/example/goshop/internal/datamodels/notification"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/otp"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/datamodels/review"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/datamodels/wishlist"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Migrate 自动迁移所有表结构，测试环境也会复用
func Migrate(g *gorm.DB) error {
	return g.AutoMigrate(
		&user.User{},
		&otp.PasswordResetOTP{},
		&product.Product{},
		&review.Review{},
		&cart.Cart{},
		&cart.Item{},
		&address.Address{},
		&order.Order{},
		&order.Item{},
		&giftcard.GiftCard{},
		&notification.Notification{},
		&wishlist.Entry{},
	)
}

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = Migrate(db); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}
