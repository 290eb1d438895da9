package routes

import (
	"time"

	"nsl-memberhub/internal/adapters/http/handlers"
	"nsl-memberhub/internal/adapters/http/middleware"
	"nsl-memberhub/internal/adapters/persistence/repositories"
	"nsl-memberhub/internal/config"
	"nsl-memberhub/internal/core/services"
	"nsl-memberhub/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

// App bundles the long-running services the server lifecycle manages.
type App struct {
	Cron          *services.CronService
	Notifications *services.NotificationService
}

// Setup configures all routes for the application and returns the
// long-running services for the caller to start and stop.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) (*App, error) {
	// Storage boundary
	store := repositories.NewStore(db)

	// Metrics
	collector := metrics.NewCollector()

	// Notification dispatch
	registry := services.NewRegistry()
	notificationService := services.NewNotificationService(store, registry)

	// Core services
	ledgerService := services.NewLedgerService(store, collector)
	referralService := services.NewReferralService(store, ledgerService, notificationService, collector)
	membershipService := services.NewMembershipService(store, ledgerService, referralService, notificationService, collector)
	approvalService := services.NewApprovalService(store, ledgerService, notificationService, collector)
	batchService := services.NewBatchService(store, approvalService, ledgerService, notificationService)
	rateService := services.NewRateService(store)
	incomeService := services.NewIncomeService(store, ledgerService, notificationService)
	productService := services.NewProductService(store)
	accountService := services.NewAccountService(store, notificationService)
	authService := services.NewAuthService(store, cfg)

	cronService, err := services.NewCronService(incomeService, membershipService)
	if err != nil {
		return nil, err
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, accountService, cfg)
	walletHandler := handlers.NewWalletHandler(ledgerService, approvalService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	productHandler := handlers.NewProductHandler(productService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	batchHandler := handlers.NewBatchHandler(batchService)
	accountHandler := handlers.NewAccountHandler(accountService)
	referralHandler := handlers.NewReferralHandler(referralService, accountService)
	currencyHandler := handlers.NewCurrencyHandler(rateService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	authRoutes.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)

	// Public catalog and currency routes
	apiV1.Get("/products", middleware.CatalogCache(5*time.Minute), productHandler.ListActive)
	currencyRoutes := apiV1.Group("/currencies")
	currencyRoutes.Get("/", middleware.CatalogCache(time.Minute), currencyHandler.List)
	currencyRoutes.Get("/convert", currencyHandler.Convert)

	// Wallet routes (authenticated)
	walletRoutes := apiV1.Group("/wallet")
	walletRoutes.Use(middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	walletRoutes.Get("/balances", walletHandler.GetBalances)
	walletRoutes.Get("/transactions", walletHandler.GetHistory)
	walletRoutes.Post("/deposits", middleware.MoneyRateLimiter(), walletHandler.RequestDeposit)
	walletRoutes.Post("/withdrawals", middleware.MoneyRateLimiter(), walletHandler.RequestWithdrawal)

	// Membership routes (authenticated)
	membershipRoutes := apiV1.Group("/memberships")
	membershipRoutes.Use(middleware.AuthMiddleware(cfg))
	membershipRoutes.Post("/purchase", middleware.MoneyRateLimiter(), membershipHandler.Purchase)
	membershipRoutes.Get("/my", membershipHandler.ListMine)
	membershipRoutes.Put("/:id/auto-renew", membershipHandler.SetAutoRenew)

	// Referral routes (authenticated)
	referralRoutes := apiV1.Group("/referrals")
	referralRoutes.Use(middleware.AuthMiddleware(cfg))
	referralRoutes.Get("/my", referralHandler.ListMine)
	referralRoutes.Get("/code", referralHandler.GetCode)

	// Notification routes (authenticated)
	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Put("/:id/read", notificationHandler.MarkRead)
	notificationRoutes.Get("/stream", notificationHandler.Stream)

	// Admin routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))

	// Transaction review queue (Finance/Admin)
	txnRoutes := adminRoutes.Group("/transactions")
	txnRoutes.Use(middleware.FinanceOrAdmin())
	txnRoutes.Get("/pending", approvalHandler.ListPending)
	txnRoutes.Get("/:id", approvalHandler.Get)
	txnRoutes.Put("/:id/approve", approvalHandler.Approve)
	txnRoutes.Put("/:id/reject", approvalHandler.Reject)

	// Batch operations (Finance/Admin; credits Admin, status changes Superadmin)
	batchRoutes := adminRoutes.Group("/batch")
	batchRoutes.Post("/transactions/approve", middleware.FinanceOrAdmin(), batchHandler.ApproveTransactions)
	batchRoutes.Post("/transactions/reject", middleware.FinanceOrAdmin(), batchHandler.RejectTransactions)
	batchRoutes.Post("/accounts/credit", middleware.AdminOnly(), batchHandler.AddCurrency)
	batchRoutes.Post("/accounts/status", middleware.SuperAdminOnly(), batchHandler.SetAccountStatus)

	// Account review queue (Admin)
	accountRoutes := adminRoutes.Group("/accounts")
	accountRoutes.Use(middleware.AdminOnly())
	accountRoutes.Get("/", accountHandler.List)
	accountRoutes.Get("/:id", accountHandler.Get)
	accountRoutes.Put("/:id/approve", accountHandler.Approve)
	accountRoutes.Put("/:id/freeze", accountHandler.Freeze)
	accountRoutes.Put("/:id/unfreeze", accountHandler.Unfreeze)

	// Catalog admin (Admin)
	productRoutes := adminRoutes.Group("/products")
	productRoutes.Use(middleware.AdminOnly())
	productRoutes.Get("/", productHandler.List)
	productRoutes.Post("/", productHandler.Create)
	productRoutes.Put("/:id", productHandler.Update)
	productRoutes.Put("/:id/active", productHandler.SetActive)

	// Currency admin (Admin)
	currencyAdminRoutes := adminRoutes.Group("/currencies")
	currencyAdminRoutes.Use(middleware.AdminOnly())
	currencyAdminRoutes.Get("/", currencyHandler.ListAll)
	currencyAdminRoutes.Post("/", currencyHandler.Upsert)
	currencyAdminRoutes.Put("/:code/override", currencyHandler.SetOverride)
	currencyAdminRoutes.Delete("/:code/override", currencyHandler.ClearOverride)

	return &App{
		Cron:          cronService,
		Notifications: notificationService,
	}, nil
}
