package router

import (
	"log"
	"time"

	"crumble/config"
	"crumble/internal/handler"
	"crumble/internal/middleware"
	"crumble/internal/repository"
	"crumble/internal/service"
	"crumble/internal/ws"
	"crumble/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	scratchRepo := repository.NewScratchRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bannerRepo := repository.NewBannerRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	trackHub := ws.NewHub()

	// Services
	fcmSvc := service.NewFCMService(cfg.Firebase.ServiceAccountPath)
	if fcmSvc != nil {
		log.Printf("[FCM] Push notifications enabled")
	} else if cfg.Firebase.ServiceAccountPath != "" {
		log.Printf("[FCM] Push notifications disabled: failed to init (check service account file)")
	} else {
		log.Printf("[FCM] Push notifications disabled: set FIREBASE_SERVICE_ACCOUNT_PATH to enable")
	}
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, fcmSvc)

	var emailSvc service.EmailSender
	if sender := service.NewHTTPEmailSender(cfg.Email.Endpoint, cfg.Email.APIKey, cfg.Email.FromAddress); sender != nil {
		emailSvc = sender
	}

	ledger := service.NewWalletLedger(walletRepo)
	calc := service.NewPricingCalculator(cfg.Incentive)
	milestoneEngine := service.NewMilestoneEngine(milestoneRepo, referralRepo, userRepo, ledger, notifSvc, emailSvc)
	referralEngine := service.NewReferralEngine(referralRepo, userRepo, ledger, milestoneEngine, notifSvc, emailSvc,
		cfg.Incentive, cfg.Email.ReferralLinkBase)
	scratchEngine := service.NewScratchCardEngine(scratchRepo, ledger, notifSvc, cfg.Incentive)
	promoSvc := service.NewPromoService(promoRepo, orderRepo)
	coordinator := service.NewOrderCoordinator(orderRepo, productRepo, slotRepo, promoSvc, ledger, calc,
		scratchEngine, referralEngine, notifSvc, trackHub)
	authSvc := service.NewAuthService(cfg, userRepo, ledger, referralEngine)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	orderHandler := handler.NewOrderHandler(coordinator)
	scratchHandler := handler.NewScratchHandler(scratchEngine)
	walletHandler := handler.NewWalletHandler(ledger)
	referralHandler := handler.NewReferralHandler(referralEngine, milestoneEngine)
	productHandler := handler.NewProductHandler(productRepo)
	promoHandler := handler.NewPromoHandler(promoRepo, promoSvc)
	bannerHandler := handler.NewBannerHandler(bannerRepo)
	slotHandler := handler.NewSlotHandler(slotRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	uploadHandler := handler.NewUploadHandler(cloud)
	adminHandler := handler.NewAdminHandler(orderRepo, settingRepo, userRepo, walletRepo, trackHub)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		// Public storefront
		api.GET("/products", productHandler.List)
		api.GET("/products/:slug", productHandler.Get)
		api.GET("/banners", bannerHandler.ListActive)
		api.GET("/delivery-slots", slotHandler.ListUpcoming)
		api.GET("/referrals/validate/:code", referralHandler.Validate)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", authHandler.Me)
			me.POST("/fcm-token", authHandler.UpdateFCMToken)
			me.GET("/wallet", walletHandler.Balance)
			me.GET("/wallet/transactions", walletHandler.Transactions)
			me.GET("/scratch-cards", scratchHandler.List)
			me.POST("/scratch-cards/:id/reveal", scratchHandler.Reveal)
			me.GET("/referral-code", referralHandler.MyCode)
			me.GET("/referrals", referralHandler.List)
			me.GET("/referrals/stats", referralHandler.Stats)
			me.GET("/milestones", referralHandler.Milestones)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("/price", orderHandler.Price)
			orders.POST("", orderHandler.Place)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/cancel", orderHandler.Cancel)
		}

		api.POST("/promos/quote", authMw, promoHandler.Quote)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/orders", adminHandler.OrdersByStatus)
			admin.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
			admin.GET("/wallets/:id/audit", adminHandler.WalletAudit)
			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.DELETE("/products/:id", productHandler.Delete)
			admin.GET("/promos", promoHandler.List)
			admin.POST("/promos", promoHandler.Create)
			admin.PUT("/promos/:id", promoHandler.Update)
			admin.DELETE("/promos/:id", promoHandler.Delete)
			admin.GET("/banners", bannerHandler.ListAll)
			admin.POST("/banners", bannerHandler.Create)
			admin.PUT("/banners/:id", bannerHandler.Update)
			admin.DELETE("/banners/:id", bannerHandler.Delete)
			admin.POST("/delivery-slots", slotHandler.Create)
			admin.PUT("/delivery-slots/:id", slotHandler.Update)
			admin.POST("/upload", uploadHandler.UploadImage)
			admin.POST("/announcements", adminHandler.Announce)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.SetSetting)
		}
	}

	r.GET("/ws/orders", handler.UpgradeOrderWS(&cfg.JWT, trackHub))

	return r
}
