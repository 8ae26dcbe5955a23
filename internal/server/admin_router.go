package server

import (
	"errors"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/order"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/export"
	"github.com/example/goshop/internal/mail"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

// RegisterAdminRoutes 注册后台管理端路由，与前台分端口部署
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)

	userRepo := mysql.NewUserRepository(db)
	otpRepo := mysql.NewOTPRepository(db)
	productRepo := mysql.NewProductRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	giftCardRepo := mysql.NewGiftCardRepository(db)
	notificationRepo := mysql.NewNotificationRepository(db)

	mailer := mail.New(&cfg.SMTP)
	notifier := service.NewNotificationService(notificationRepo)
	userSvc := service.NewUserService(userRepo, otpRepo, notifier, mailer, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, reviewRepo)
	adminSvc := service.NewAdminService(userRepo, orderRepo, notifier)
	giftCardSvc := service.NewGiftCardService(giftCardRepo, notifier, mailer, nil)

	api := app.Party("/api")

	// 后台登录，只放行管理员
	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Account  string `json:"account"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		token, u, err := userSvc.Login(ctx.Request().Context(), req.Account, req.Password)
		if err != nil {
			fail(ctx, 401, err.Error())
			return
		}
		if !u.Admin {
			fail(ctx, 403, "该账号没有后台权限")
			return
		}
		ok(ctx, iris.Map{"token": token, "user": iris.Map{"id": u.ID, "username": u.Username}})
	})

	// 管理端所有接口都要求 Admin claim
	adminAPI := api.Party("/", func(ctx iris.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			fail(ctx, 401, "请先登录")
			return
		}
		claims, err := auth.ParseToken(&cfg.JWT, token)
		if err != nil {
			fail(ctx, 401, "登录已失效")
			return
		}
		if !claims.Admin {
			fail(ctx, 403, "该账号没有后台权限")
			return
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Next()
	})

	// ---------- 看板 ----------

	adminAPI.Get("/dashboard", func(ctx iris.Context) {
		stats, err := adminSvc.Dashboard(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{
			"total_users":        stats.TotalUsers,
			"total_orders":       stats.TotalOrders,
			"orders_today":       stats.OrdersToday,
			"orders_this_month":  stats.OrdersThisMonth,
			"total_revenue":      stats.TotalRevenue,
			"revenue_today":      stats.RevenueToday,
			"revenue_this_month": stats.RevenueMonth,
			"recent_orders":      stats.RecentOrders,
			"top_products":       stats.TopProducts,
		})
	})

	// ---------- 用户管理 ----------

	adminAPI.Get("/users", func(ctx iris.Context) {
		list, err := adminSvc.ListUsers(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		users := make([]iris.Map, 0, len(list))
		for _, u := range list {
			users = append(users, iris.Map{
				"id":         u.ID,
				"username":   u.Username,
				"email":      u.Email,
				"name":       u.DisplayName(),
				"active":     u.Active,
				"admin":      u.Admin,
				"created_at": u.CreatedAt,
			})
		}
		ok(ctx, iris.Map{"users": users})
	})

	adminAPI.Post("/users/{id:uint64}/activate", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		if err := adminSvc.SetUserActive(ctx.Request().Context(), int64(id), true); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已启用"})
	})

	adminAPI.Post("/users/{id:uint64}/deactivate", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		if err := adminSvc.SetUserActive(ctx.Request().Context(), int64(id), false); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已停用"})
	})

	adminAPI.Delete("/users/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		if err := adminSvc.DeleteUser(ctx.Request().Context(), int64(id)); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已删除"})
	})

	// ---------- 商品管理 ----------

	adminAPI.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"products": list})
	})

	adminAPI.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		p := &product.Product{Active: true}
		if err := req.applyTo(p); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"product": p})
	})

	adminAPI.Put("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), int64(id))
		if err != nil {
			failErr(ctx, err)
			return
		}
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if err := req.applyTo(p); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"product": p})
	})

	adminAPI.Delete("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		if err := productSvc.Delete(ctx.Request().Context(), int64(id)); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已删除"})
	})

	// ---------- 订单管理 ----------

	adminAPI.Get("/orders", func(ctx iris.Context) {
		list, err := adminSvc.ListOrders(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"orders": list})
	})

	adminAPI.Get("/orders/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		o, items, err := adminSvc.GetOrder(ctx.Request().Context(), int64(id))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"order": o, "items": items})
	})

	adminAPI.Put("/orders/{id:uint64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if err := adminSvc.UpdateOrderStatus(ctx.Request().Context(), int64(id), req.Status); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "状态已更新"})
	})

	// 订单导出：csv / xlsx / pdf
	adminAPI.Get("/orders/export/{format:string}", func(ctx iris.Context) {
		list, err := adminSvc.ListOrders(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		rows, err := buildOrderRows(ctx, adminSvc, list)
		if err != nil {
			failErr(ctx, err)
			return
		}

		format := ctx.Params().GetString("format")
		switch format {
		case "csv":
			ctx.Header("Content-Disposition", `attachment; filename="orders.csv"`)
			ctx.ContentType("text/csv")
			err = export.WriteOrdersCSV(ctx.ResponseWriter(), rows)
		case "xlsx":
			ctx.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
			ctx.ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			err = export.WriteOrdersXLSX(ctx.ResponseWriter(), rows)
		case "pdf":
			ctx.Header("Content-Disposition", `attachment; filename="orders.pdf"`)
			ctx.ContentType("application/pdf")
			err = export.WriteOrdersPDF(ctx.ResponseWriter(), rows)
		default:
			fail(ctx, 400, "不支持的导出格式")
			return
		}
		if err != nil {
			ctx.Application().Logger().Errorf("export orders (%s): %v", format, err)
		}
	})

	// ---------- 礼品卡管理 ----------

	adminAPI.Get("/giftcards", func(ctx iris.Context) {
		list, err := giftCardSvc.ListAll(ctx.Request().Context())
		if err != nil {
			failErr(ctx, err)
			return
		}
		now := time.Now()
		cards := make([]iris.Map, 0, len(list))
		for _, g := range list {
			cards = append(cards, iris.Map{
				"id":            g.ID,
				"masked_number": g.MaskedNumber(),
				"amount":        g.Amount,
				"balance":       g.RemainingBalance,
				"recipient":     g.RecipientEmail,
				"status":        g.Status,
				"valid":         g.IsValid(now),
				"scheduled":     g.Scheduled,
				"delivered":     g.Delivered,
				"expires_at":    g.ExpiresAt,
				"created_at":    g.CreatedAt,
			})
		}
		ok(ctx, iris.Map{"giftcards": cards})
	})
}

// buildOrderRows 订单拼上买家用户名和件数，供导出使用
func buildOrderRows(ctx iris.Context, adminSvc *service.AdminService, list []*order.Order) ([]*export.OrderRow, error) {
	users, err := adminSvc.ListUsers(ctx.Request().Context())
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	counts, err := adminSvc.OrderItemCounts(ctx.Request().Context())
	if err != nil {
		return nil, err
	}
	rows := make([]*export.OrderRow, 0, len(list))
	for _, o := range list {
		rows = append(rows, &export.OrderRow{
			OrderID:     o.OrderID,
			Username:    names[o.UserID],
			Status:      o.Status,
			TotalAmount: o.TotalAmount,
			ItemCount:   counts[o.ID],
			CreatedAt:   o.CreatedAt,
		})
	}
	return rows, nil
}

// ---- 商品表单 ----

var (
	errNameRequired    = errors.New("商品名不能为空")
	errPriceInvalid    = errors.New("价格必须大于 0")
	errDiscountInvalid = errors.New("折扣价必须小于原价且不为负")
	errStockInvalid    = errors.New("库存不能为负")
)

type productRequest struct {
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
	Price            string `json:"price"`
	DiscountedPrice  string `json:"discounted_price"`
	Stock            int64  `json:"stock"`
	Category         string `json:"category"`
	Featured         bool   `json:"featured"`
	Active           *bool  `json:"active"`
}

func (r *productRequest) applyTo(p *product.Product) error {
	if r.Name == "" {
		return errNameRequired
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil || !price.IsPositive() {
		return errPriceInvalid
	}
	p.Name = r.Name
	p.Slug = r.Slug
	p.Description = r.Description
	p.ShortDescription = r.ShortDescription
	p.Price = price
	if r.DiscountedPrice != "" {
		dp, err := decimal.NewFromString(r.DiscountedPrice)
		if err != nil || dp.IsNegative() || dp.GreaterThanOrEqual(price) {
			return errDiscountInvalid
		}
		p.DiscountedPrice = dp
	} else {
		p.DiscountedPrice = decimal.Zero
	}
	if r.Stock < 0 {
		return errStockInvalid
	}
	p.Stock = r.Stock
	p.Category = r.Category
	p.Featured = r.Featured
	if r.Active != nil {
		p.Active = *r.Active
	}
	return nil
}
