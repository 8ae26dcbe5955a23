package server

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/shopspring/decimal"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/export"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/infra/redis"
	"github.com/example/goshop/internal/mail"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

// ok / fail 统一返回格式
func ok(ctx iris.Context, data iris.Map) {
	resp := iris.Map{"success": true}
	for k, v := range data {
		resp[k] = v
	}
	_ = ctx.JSON(resp)
}

func fail(ctx iris.Context, status int, msg string) {
	ctx.StopWithJSON(status, iris.Map{"success": false, "message": msg})
}

// RegisterRoutes 注册前台 HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储
	userRepo := mysql.NewUserRepository(db)
	otpRepo := mysql.NewOTPRepository(db)
	productRepo := mysql.NewProductRepository(db)
	reviewRepo := mysql.NewReviewRepository(db)
	cartRepo := mysql.NewCartRepository(db)
	addrRepo := mysql.NewAddressRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	giftCardRepo := mysql.NewGiftCardRepository(db)
	notificationRepo := mysql.NewNotificationRepository(db)
	wishlistRepo := mysql.NewWishlistRepository(db)

	// 服务
	mailer := mail.New(&cfg.SMTP)
	notifier := service.NewNotificationService(notificationRepo)
	userSvc := service.NewUserService(userRepo, otpRepo, notifier, mailer, &cfg.JWT)
	productSvc := service.NewProductService(productRepo, reviewRepo)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	addrSvc := service.NewAddressService(addrRepo)
	orderSvc := service.NewOrderService(db, cartRepo, addrRepo, orderRepo, notifier)
	wishlistSvc := service.NewWishlistService(wishlistRepo, productRepo, notifier)
	publisher := service.NewAMQPDeliveryPublisher(mqConn)
	giftCardSvc := service.NewGiftCardService(giftCardRepo, notifier, mailer, publisher)

	// JWT 校验，解析结果走 Redis 缓存
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring, time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	parseAuth := func(ctx iris.Context) *auth.Claims {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			return nil
		}
		if claims, hit, err := tokenCache.Get(ctx.Request().Context(), token); err == nil && hit {
			if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
				return nil
			}
			return claims
		}
		claims, err := auth.ParseToken(&cfg.JWT, token)
		if err != nil {
			return nil
		}
		_ = tokenCache.Set(ctx.Request().Context(), token, claims)
		return claims
	}

	requireAuth := func(ctx iris.Context) {
		claims := parseAuth(ctx)
		if claims == nil {
			fail(ctx, 401, "请先登录")
			return
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("username", claims.Username)
		ctx.Next()
	}

	api := app.Party("/api")

	api.Get("/health", func(ctx iris.Context) {
		ok(ctx, iris.Map{"message": "ok"})
	})

	// ---------- 注册 / 登录 ----------

	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Username  string `json:"username"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Phone     string `json:"phone"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			fail(ctx, 400, "用户名、邮箱和密码不能为空")
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), service.RegisterInput{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		})
		if err != nil {
			fail(ctx, 400, "注册失败，用户名或邮箱可能已被占用")
			return
		}
		ok(ctx, iris.Map{"user": iris.Map{"id": u.ID, "username": u.Username, "email": u.Email}})
	})

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
		ok(ctx, iris.Map{
			"token": token,
			"user":  iris.Map{"id": u.ID, "username": u.Username, "name": u.DisplayName(), "admin": u.Admin},
		})
	})

	// ---------- 密码重置（OTP 三步） ----------

	api.Post("/password/forgot", func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if err := userSvc.ForgotPassword(ctx.Request().Context(), req.Email); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "验证码已发送至邮箱"})
	})

	// 重发验证码：语义同 forgot，旧码作废
	api.Post("/password/resend", func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if err := userSvc.ForgotPassword(ctx.Request().Context(), req.Email); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "验证码已重新发送"})
	})

	api.Post("/password/verify", func(ctx iris.Context) {
		var req struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		otpID, err := userSvc.VerifyOTP(ctx.Request().Context(), req.Email, req.Code)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"otp_id": otpID})
	})

	api.Post("/password/reset", func(ctx iris.Context) {
		var req struct {
			OTPID       int64  `json:"otp_id"`
			Code        string `json:"code"`
			NewPassword string `json:"new_password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		if req.NewPassword == "" {
			fail(ctx, 400, "新密码不能为空")
			return
		}
		if err := userSvc.ResetPassword(ctx.Request().Context(), req.OTPID, req.Code, req.NewPassword); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "密码已重置，请重新登录"})
	})

	// ---------- 商品 ----------

	api.Get("/products", func(ctx iris.Context) {
		filter := product.ListFilter{
			Category: ctx.URLParam("category"),
			Keyword:  ctx.URLParam("q"),
		}
		if v := ctx.URLParam("min_price"); v != "" {
			if d, err := decimal.NewFromString(v); err == nil {
				filter.MinPrice = &d
			}
		}
		if v := ctx.URLParam("max_price"); v != "" {
			if d, err := decimal.NewFromString(v); err == nil {
				filter.MaxPrice = &d
			}
		}
		list, err := productSvc.List(ctx.Request().Context(), filter)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"products": list})
	})

	api.Get("/products/featured", func(ctx iris.Context) {
		list, err := productSvc.ListFeatured(ctx.Request().Context(), 8)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"products": list})
	})

	api.Get("/products/{id:uint64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetUint64("id")
		detail, err := productSvc.GetDetail(ctx.Request().Context(), int64(id))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{
			"product":      detail.Product,
			"related":      detail.Related,
			"reviews":      detail.Reviews,
			"avg_rating":   detail.AvgRating,
			"review_count": detail.ReviewCount,
		})
	})

	// ---------- 礼品卡（公开，限流防枚举） ----------

	giftAPI := api.Party("/gift-cards", middleware.GiftCardRateLimit())

	giftAPI.Post("/", func(ctx iris.Context) {
		var req struct {
			Amount          string `json:"amount"`
			RecipientName   string `json:"recipient_name"`
			RecipientEmail  string `json:"recipient_email"`
			PersonalMessage string `json:"personal_message"`
			PurchaserEmail  string `json:"purchaser_email"`
			DeliveryDate    string `json:"delivery_date"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			fail(ctx, 400, "金额格式不正确")
			return
		}
		if req.RecipientName == "" || req.RecipientEmail == "" {
			fail(ctx, 400, "收件人姓名和邮箱不能为空")
			return
		}

		in := service.PurchaseInput{
			Amount:          amount,
			RecipientName:   req.RecipientName,
			RecipientEmail:  req.RecipientEmail,
			PersonalMessage: req.PersonalMessage,
			PurchaserEmail:  req.PurchaserEmail,
		}
		// 登录用户购买记到账上，游客只留邮箱
		if claims := parseAuth(ctx); claims != nil {
			uid := claims.UserID
			in.PurchaserID = &uid
		}
		if req.DeliveryDate != "" {
			t, err := time.ParseInLocation("2006-01-02 15:04:05", req.DeliveryDate, time.Local)
			if err != nil {
				t, err = time.ParseInLocation("2006-01-02", req.DeliveryDate, time.Local)
			}
			if err != nil {
				fail(ctx, 400, "投递时间格式不正确")
				return
			}
			in.DeliveryDate = &t
		}

		g, err := giftCardSvc.Purchase(ctx.Request().Context(), in)
		if err != nil {
			if g != nil {
				// 卡已生成但投递失败
				ok(ctx, iris.Map{"message": err.Error(), "card": iris.Map{"masked_number": g.MaskedNumber()}})
				return
			}
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"card": iris.Map{
			"masked_number": g.MaskedNumber(),
			"amount":        g.Amount,
			"scheduled":     g.Scheduled,
			"expires_at":    g.ExpiresAt,
		}})
	})

	giftAPI.Post("/balance", func(ctx iris.Context) {
		var req struct {
			CardNumber   string `json:"card_number"`
			SecurityCode string `json:"security_code"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		res, err := giftCardSvc.CheckBalance(ctx.Request().Context(), normalizeCardNumber(req.CardNumber), req.SecurityCode)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{
			"card_number": res.MaskedNumber,
			"balance":     res.Balance,
			"status":      res.Status,
			"expires_at":  res.ExpiresAt,
			"valid":       res.Valid,
		})
	})

	giftAPI.Post("/redeem", requireAuth, func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			CardNumber   string `json:"card_number"`
			SecurityCode string `json:"security_code"`
			Amount       string `json:"amount"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			fail(ctx, 400, "金额格式不正确")
			return
		}
		res, err := giftCardSvc.Redeem(ctx.Request().Context(), normalizeCardNumber(req.CardNumber), req.SecurityCode, amount, userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{
			"redeemed": res.Redeemed,
			"balance":  res.Balance,
			"status":   res.Card.Status,
		})
	})

	// 自己买过的卡，只露掩码卡号
	giftAPI.Get("/mine", requireAuth, func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := giftCardSvc.ListByPurchaser(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		now := time.Now()
		cards := make([]iris.Map, 0, len(list))
		for _, g := range list {
			cards = append(cards, iris.Map{
				"masked_number": g.MaskedNumber(),
				"amount":        g.Amount,
				"balance":       g.RemainingBalance,
				"recipient":     g.RecipientEmail,
				"status":        g.Status,
				"valid":         g.IsValid(now),
				"delivered":     g.Delivered,
				"expires_at":    g.ExpiresAt,
			})
		}
		ok(ctx, iris.Map{"giftcards": cards})
	})

	// ---------- 需要登录的接口 ----------

	authAPI := api.Party("/", requireAuth)

	// 资料
	authAPI.Get("/profile", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		u, err := userSvc.GetProfile(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"user": iris.Map{
			"id":         u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"phone":      u.Phone,
		}})
	})

	authAPI.Put("/profile", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Phone     string `json:"phone"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		u, err := userSvc.UpdateProfile(ctx.Request().Context(), userID, service.ProfileInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		})
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"user": iris.Map{"id": u.ID, "name": u.DisplayName()}})
	})

	// 评价
	authAPI.Post("/products/{id:uint64}/reviews", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		pid, _ := ctx.Params().GetUint64("id")
		var req struct {
			Rating  int    `json:"rating"`
			Comment string `json:"comment"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		rv, err := productSvc.AddReview(ctx.Request().Context(), userID, int64(pid), req.Rating, req.Comment)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"review": rv})
	})

	authAPI.Delete("/products/{id:uint64}/reviews", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		pid, _ := ctx.Params().GetUint64("id")
		if err := productSvc.DeleteReview(ctx.Request().Context(), userID, int64(pid)); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已删除"})
	})

	// 购物车
	cartResponse := func(ctx iris.Context, sum *service.Summary) {
		items := make([]iris.Map, 0, len(sum.Items))
		for _, it := range sum.Items {
			items = append(items, iris.Map{
				"id":         it.Item.ID,
				"product_id": it.Product.ID,
				"name":       it.Product.Name,
				"price":      it.Product.SellingPrice(),
				"quantity":   it.Item.Quantity,
				"line_total": it.LineTotal(),
			})
		}
		ok(ctx, iris.Map{
			"items":       items,
			"total_price": sum.TotalPrice,
			"total_items": sum.TotalItems,
		})
	}

	authAPI.Get("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		sum, err := cartSvc.Get(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		cartResponse(ctx, sum)
	})

	authAPI.Post("/cart/items", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			ProductID int64 `json:"product_id"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		sum, err := cartSvc.AddProduct(ctx.Request().Context(), userID, req.ProductID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		cartResponse(ctx, sum)
	})

	authAPI.Put("/cart/items/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		itemID, _ := ctx.Params().GetUint64("id")
		var req struct {
			Quantity int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		sum, err := cartSvc.UpdateItem(ctx.Request().Context(), userID, int64(itemID), req.Quantity)
		if err != nil {
			failErr(ctx, err)
			return
		}
		cartResponse(ctx, sum)
	})

	authAPI.Delete("/cart/items/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		itemID, _ := ctx.Params().GetUint64("id")
		sum, err := cartSvc.RemoveItem(ctx.Request().Context(), userID, int64(itemID))
		if err != nil {
			failErr(ctx, err)
			return
		}
		cartResponse(ctx, sum)
	})

	// 收货地址
	authAPI.Get("/addresses", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := addrSvc.List(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"addresses": list})
	})

	readAddressInput := func(ctx iris.Context) (service.AddressInput, bool) {
		var req struct {
			FullName string `json:"full_name"`
			Phone    string `json:"phone"`
			Line1    string `json:"line1"`
			Line2    string `json:"line2"`
			City     string `json:"city"`
			State    string `json:"state"`
			Pincode  string `json:"pincode"`
			Default  bool   `json:"default"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return service.AddressInput{}, false
		}
		return service.AddressInput{
			FullName: req.FullName,
			Phone:    req.Phone,
			Line1:    req.Line1,
			Line2:    req.Line2,
			City:     req.City,
			State:    req.State,
			Pincode:  req.Pincode,
			Default:  req.Default,
		}, true
	}

	authAPI.Post("/addresses", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		in, okInput := readAddressInput(ctx)
		if !okInput {
			return
		}
		a, err := addrSvc.Create(ctx.Request().Context(), userID, in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"address": a})
	})

	authAPI.Put("/addresses/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		in, okInput := readAddressInput(ctx)
		if !okInput {
			return
		}
		a, err := addrSvc.Update(ctx.Request().Context(), int64(id), userID, in)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"address": a})
	})

	authAPI.Delete("/addresses/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		if err := addrSvc.Delete(ctx.Request().Context(), int64(id), userID); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已删除"})
	})

	// 结算与订单
	authAPI.Get("/checkout", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		view, err := orderSvc.Checkout(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		items := make([]iris.Map, 0, len(view.Items))
		for _, it := range view.Items {
			items = append(items, iris.Map{
				"product_id": it.Product.ID,
				"name":       it.Product.Name,
				"price":      it.Product.SellingPrice(),
				"quantity":   it.Item.Quantity,
				"line_total": it.LineTotal(),
			})
		}
		ok(ctx, iris.Map{
			"items":           items,
			"grand_total":     view.GrandTotal,
			"addresses":       view.Addresses,
			"default_address": view.DefaultAddress,
		})
	})

	authAPI.Post("/orders", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			AddressID     int64  `json:"address_id"`
			CustomAddress string `json:"custom_address"`
			Phone         string `json:"phone"`
			FullName      string `json:"full_name"`
			SaveAddress   bool   `json:"save_address"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			fail(ctx, 400, err.Error())
			return
		}
		o, err := orderSvc.PlaceOrder(ctx.Request().Context(), userID, service.PlaceOrderInput{
			AddressID:     req.AddressID,
			CustomAddress: req.CustomAddress,
			Phone:         req.Phone,
			FullName:      req.FullName,
			SaveAddress:   req.SaveAddress,
		})
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"order": iris.Map{
			"id":           o.ID,
			"order_id":     o.OrderID,
			"status":       o.Status,
			"total_amount": o.TotalAmount,
		}})
	})

	authAPI.Get("/orders", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := orderSvc.ListByUser(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"orders": list})
	})

	authAPI.Get("/orders/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		o, items, err := orderSvc.GetForUser(ctx.Request().Context(), int64(id), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"order": o, "items": items})
	})

	// 订单发票下载，format=pdf（默认）或 xlsx
	authAPI.Get("/orders/{id:uint64}/invoice", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		o, items, err := orderSvc.GetForUser(ctx.Request().Context(), int64(id), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		u, err := userSvc.GetProfile(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		inv := export.NewInvoice(o, items, u.DisplayName())

		switch ctx.URLParamDefault("format", "pdf") {
		case "pdf":
			ctx.Header("Content-Disposition", `attachment; filename="invoice_`+o.OrderID+`.pdf"`)
			ctx.ContentType("application/pdf")
			err = export.WriteInvoicePDF(ctx.ResponseWriter(), inv)
		case "xlsx":
			ctx.Header("Content-Disposition", `attachment; filename="invoice_`+o.OrderID+`.xlsx"`)
			ctx.ContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			err = export.WriteInvoiceXLSX(ctx.ResponseWriter(), inv)
		default:
			fail(ctx, 400, "不支持的发票格式")
			return
		}
		if err != nil {
			ctx.Application().Logger().Errorf("write invoice: %v", err)
		}
	})

	// 收藏夹
	authAPI.Get("/wishlist", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := wishlistSvc.List(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		entries := make([]iris.Map, 0, len(list))
		for _, e := range list {
			entries = append(entries, iris.Map{
				"product_id": e.Product.ID,
				"name":       e.Product.Name,
				"price":      e.Product.SellingPrice(),
				"in_stock":   e.Product.Stock > 0,
				"added_at":   e.Entry.CreatedAt,
			})
		}
		ok(ctx, iris.Map{"items": entries})
	})

	authAPI.Post("/wishlist/{id:uint64}/toggle", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		pid, _ := ctx.Params().GetUint64("id")
		added, err := wishlistSvc.Toggle(ctx.Request().Context(), userID, int64(pid))
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"added": added})
	})

	authAPI.Delete("/wishlist/{id:uint64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		pid, _ := ctx.Params().GetUint64("id")
		if err := wishlistSvc.Remove(ctx.Request().Context(), userID, int64(pid)); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已移除"})
	})

	// 通知
	authAPI.Get("/notifications", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := notifier.List(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		unread, err := notifier.UnreadCount(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"notifications": list, "unread": unread})
	})

	authAPI.Post("/notifications/{id:uint64}/read", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetUint64("id")
		if err := notifier.MarkRead(ctx.Request().Context(), int64(id), userID); err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"message": "已读"})
	})

	authAPI.Post("/notifications/read-all", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		n, err := notifier.MarkAllRead(ctx.Request().Context(), userID)
		if err != nil {
			failErr(ctx, err)
			return
		}
		ok(ctx, iris.Map{"marked": n})
	})
}

// normalizeCardNumber 去掉用户输入里的连字符和空格
func normalizeCardNumber(n string) string {
	n = strings.ReplaceAll(n, "-", "")
	return strings.ReplaceAll(n, " ", "")
}
