package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/creatilink/marketplace-backend/internal/config"
	"github.com/creatilink/marketplace-backend/internal/db"
	httpHandlers "github.com/creatilink/marketplace-backend/internal/http/handlers"
	httpRouter "github.com/creatilink/marketplace-backend/internal/http/router"
	"github.com/creatilink/marketplace-backend/internal/logger"
	"github.com/creatilink/marketplace-backend/internal/repository"
	"github.com/creatilink/marketplace-backend/internal/service"
	"github.com/creatilink/marketplace-backend/internal/storage"
	"github.com/creatilink/marketplace-backend/internal/validation"
	"github.com/creatilink/marketplace-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init("info", cfg.Env)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательная инфраструктура.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	screenshotStorage, err := storage.NewScreenshotStorage(cfg.ScreenshotStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	deliveryLinks := validation.NewDeliveryLinkValidator(cfg.DeliveryAllowedDomains)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	applicationRepo := repository.NewApplicationRepository(dbConn)
	transactionRepo := repository.NewTransactionRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	guard := service.NewGuard(userRepo)
	notificationService := service.NewNotificationService(notificationRepo, ws.NewNotificationSink(hub))
	auditService := service.NewAuditService(auditRepo, guard)
	transactionService := service.NewTransactionService(transactionRepo, guard, notificationService, auditService, screenshotStorage)
	projectService := service.NewProjectService(projectRepo, applicationRepo, transactionRepo, guard, notificationService, auditService, userRepo, deliveryLinks)
	disputeService := service.NewDisputeService(disputeRepo, transactionRepo, userRepo, guard, notificationService, auditService)
	userService := service.NewUserService(userRepo, guard, auditService)
	seedService := service.NewSeedService(userRepo, projectRepo)

	// HTTP хэндлеры.
	projectHandler := httpHandlers.NewProjectHandler(projectService)
	transactionHandler := httpHandlers.NewTransactionHandler(transactionService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	adminHandler := httpHandlers.NewAdminHandler(transactionService, disputeService, projectService, userService, auditService)
	userHandler := httpHandlers.NewUserHandler(userService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	var seedHandler *httpHandlers.SeedHandler
	if cfg.Env == "development" {
		seedHandler = httpHandlers.NewSeedHandler(seedService, tokenManager)
	}

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		projectHandler,
		transactionHandler,
		disputeHandler,
		notificationHandler,
		adminHandler,
		userHandler,
		wsHandler,
		healthHandler,
		seedHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
