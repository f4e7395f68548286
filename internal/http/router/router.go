package router

import (
	"github.com/gin-gonic/gin"

	"github.com/creatilink/marketplace-backend/internal/config"
	"github.com/creatilink/marketplace-backend/internal/http/handlers"
	"github.com/creatilink/marketplace-backend/internal/http/middleware"
	"github.com/creatilink/marketplace-backend/internal/service"
)

// SetupRouter собирает маршруты сервиса.
func SetupRouter(
	cfg *config.Config,
	projectHandler *handlers.ProjectHandler,
	transactionHandler *handlers.TransactionHandler,
	disputeHandler *handlers.DisputeHandler,
	notificationHandler *handlers.NotificationHandler,
	adminHandler *handlers.AdminHandler,
	userHandler *handlers.UserHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
		api.GET("/seed", seedHandler.Seed)
	}

	// Публичные маршруты
	api.GET("/projects", projectHandler.List)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))

	mutationRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	{
		protected.GET("/profile", userHandler.GetMe)
		protected.GET("/users/:id", middleware.UUIDValidator("id"), userHandler.Get)

		// Проекты
		protected.POST("/projects", mutationRateLimit, projectHandler.Create)
		protected.GET("/projects/my", projectHandler.ListMine)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Get)
		protected.DELETE("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Delete)
		protected.POST("/projects/:id/apply", middleware.UUIDValidator("id"), mutationRateLimit, projectHandler.Apply)
		protected.GET("/projects/:id/applications", middleware.UUIDValidator("id"), projectHandler.ListApplications)
		protected.POST("/projects/:id/assign", middleware.UUIDValidator("id"), projectHandler.Assign)
		protected.POST("/projects/:id/deliver", middleware.UUIDValidator("id"), projectHandler.SubmitDelivery)
		protected.POST("/projects/:id/leave", middleware.UUIDValidator("id"), projectHandler.Leave)
		protected.GET("/projects/:id/transactions", middleware.UUIDValidator("id"), projectHandler.ListTransactions)

		// Транзакции: двустороннее подтверждение оплаты
		protected.GET("/transactions", transactionHandler.ListMine)
		protected.GET("/transactions/:id", middleware.UUIDValidator("id"), transactionHandler.Get)
		protected.POST("/transactions/:id/confirm-payment", middleware.UUIDValidator("id"), transactionHandler.ConfirmPayment)
		protected.POST("/transactions/:id/confirm-receipt", middleware.UUIDValidator("id"), transactionHandler.ConfirmReceipt)
		protected.POST("/transactions/:id/reject", middleware.UUIDValidator("id"), transactionHandler.Reject)
		protected.POST("/transactions/:id/screenshot", middleware.UUIDValidator("id"), transactionHandler.AttachScreenshot)

		// Споры
		protected.POST("/disputes", mutationRateLimit, disputeHandler.Raise)
		protected.GET("/disputes", disputeHandler.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.Get)

		// Уведомления
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	// Административные маршруты. Роль проверяется сервисами по записи
	// пользователя в БД.
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	{
		admin.GET("/transactions", adminHandler.ListTransactions)
		admin.POST("/transactions/:id/release", middleware.UUIDValidator("id"), adminHandler.ReleaseTransaction)
		admin.POST("/transactions/:id/refund", middleware.UUIDValidator("id"), adminHandler.RefundTransaction)

		admin.GET("/disputes", adminHandler.ListOpenDisputes)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), adminHandler.ResolveDispute)
		admin.POST("/disputes/:id/refund", middleware.UUIDValidator("id"), adminHandler.ResolveDisputeWithRefund)
		admin.POST("/disputes/:id/release", middleware.UUIDValidator("id"), adminHandler.ResolveDisputeWithRelease)
		admin.POST("/disputes/:id/ban", middleware.UUIDValidator("id"), adminHandler.ResolveDisputeWithBan)

		admin.POST("/projects/:id/force-complete", middleware.UUIDValidator("id"), adminHandler.ForceCompleteProject)
		admin.POST("/projects/:id/reassign", middleware.UUIDValidator("id"), adminHandler.ReassignProject)

		admin.POST("/users/:id/ban", middleware.UUIDValidator("id"), adminHandler.BanUser)

		admin.GET("/audit", adminHandler.ListAuditLog)
	}

	return r
}
