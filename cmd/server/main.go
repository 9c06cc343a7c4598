package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/budongsan-crm/config"
	"github.com/ikkim/budongsan-crm/internal/app/controller"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/internal/db"
	"github.com/ikkim/budongsan-crm/internal/middleware"
	"github.com/ikkim/budongsan-crm/internal/router"
	"github.com/ikkim/budongsan-crm/internal/scheduler"
	"github.com/ikkim/budongsan-crm/internal/storage"
	ws "github.com/ikkim/budongsan-crm/internal/websocket"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/ikkim/budongsan-crm/pkg/payment/kakaopay"
	"github.com/ikkim/budongsan-crm/pkg/queue"
	"github.com/ikkim/budongsan-crm/pkg/redis"
	"github.com/ikkim/budongsan-crm/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting BUDONGSAN CRM Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis (optional): 토큰 블랙리스트, 인증코드 저장소, 요청 제한
	var (
		codeStore util.CodeStore = util.NewMemoryCodeStore()
		revoker   service.TokenRevoker
		revoked   middleware.RevocationChecker
		limiter   middleware.Limiter
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory stores", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("Failed to close Redis connection", err)
				}
			}()
			blacklist := redis.NewTokenBlacklist(client)
			codeStore = redis.NewCodeStore(client)
			revoker = blacklist
			revoked = blacklist
			if cfg.RateLimit.Enabled {
				limiter = redis.NewRateLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
			}
		}
	}

	// RabbitMQ (optional): 계약 이벤트 발행
	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := queue.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, contract events will not be published", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			publisher = amqpPublisher
		}
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", err)
		}
	}()

	// S3 (optional): 매물 이미지, 계약 첨부파일
	var presigner storage.Presigner
	if cfg.S3.Bucket != "" {
		presigner = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	}

	// KakaoPay (optional): 정기결제
	var billing service.BillingClient
	kakaoClient, err := kakaopay.NewClient(kakaopay.Config{
		SecretKey:   cfg.Payment.KakaoPay.SecretKey,
		CID:         cfg.Payment.KakaoPay.CID,
		BaseURL:     cfg.Payment.KakaoPay.BaseURL,
		ApprovalURL: cfg.Payment.KakaoPay.ApprovalURL,
		FailURL:     cfg.Payment.KakaoPay.FailURL,
		CancelURL:   cfg.Payment.KakaoPay.CancelURL,
	})
	if err != nil {
		logger.Warn("KakaoPay is not configured, subscriptions are disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		billing = kakaoClient
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	conn := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(conn)
	companyRepo := repository.NewCompanyRepository(conn)
	customerRepo := repository.NewCustomerRepository(conn)
	propertyRepo := repository.NewPropertyRepository(conn)
	contractRepo := repository.NewContractRepository(conn)
	scheduleRepo := repository.NewScheduleRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	activityRepo := repository.NewActivityRepository(conn)
	subscriptionRepo := repository.NewSubscriptionRepository(conn)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(
		conn,
		userRepo,
		companyRepo,
		codeStore,
		util.NewMailer(util.MailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.Email,
			Password: cfg.SMTP.Password,
		}),
		util.NewBusinessVerifier(cfg.Verification.BusinessAPIKey, ""),
		revoker,
		service.AuthConfig{
			JWTSecret:     cfg.JWT.Secret,
			AccessExpiry:  cfg.JWT.AccessTokenExpiry,
			RefreshExpiry: cfg.JWT.RefreshTokenExpiry,
			CodeTTL:       cfg.Verification.CodeTTL,
			VerifiedTTL:   cfg.Verification.VerifiedTTL,
		},
	)
	memberService := service.NewMemberService(conn, userRepo, activityRepo, notificationService)
	customerService := service.NewCustomerService(customerRepo, activityRepo)
	propertyService := service.NewPropertyService(propertyRepo, customerRepo, contractRepo, activityRepo, presigner)
	contractService := service.NewContractService(
		conn,
		contractRepo,
		customerRepo,
		propertyRepo,
		userRepo,
		scheduleRepo,
		activityRepo,
		notificationService,
		publisher,
	)
	scheduleService := service.NewScheduleService(scheduleRepo, contractRepo, notificationService)
	salesService := service.NewSalesService(contractRepo, nil)
	activityService := service.NewActivityService(activityRepo)
	subscriptionService := service.NewSubscriptionService(
		conn,
		subscriptionRepo,
		userRepo,
		activityRepo,
		notificationService,
		billing,
		service.SubscriptionPlan{
			Name:  cfg.Payment.KakaoPay.PlanName,
			Price: cfg.Payment.KakaoPay.MonthlyPrice,
		},
	)

	// Initialize controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Member:       controller.NewMemberController(memberService),
		Customer:     controller.NewCustomerController(customerService),
		Property:     controller.NewPropertyController(propertyService),
		Contract:     controller.NewContractController(contractService),
		Upload:       controller.NewUploadController(contractService, presigner),
		Schedule:     controller.NewScheduleController(scheduleService),
		Sales:        controller.NewSalesController(salesService),
		Notification: controller.NewNotificationController(notificationService, hub, cfg.CORS.AllowedOrigins),
		Activity:     controller.NewActivityController(activityService),
		Subscription: controller.NewSubscriptionController(subscriptionService),
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, authService, revoked)

	// Setup router
	r := router.NewRouter(controllers, authMiddleware, limiter, cfg)
	engine := r.Setup()

	// Start scheduler
	var renewer scheduler.SubscriptionRenewer
	if billing != nil {
		renewer = subscriptionService
	}
	jobs := scheduler.NewScheduler(scheduleService, renewer)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	jobs.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
