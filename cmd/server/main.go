package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asur-wears/config"
	"asur-wears/internal/api"
	"asur-wears/internal/auth"
	"asur-wears/internal/broker"
	"asur-wears/internal/media"
	"asur-wears/internal/notify"
	"asur-wears/internal/redisclient"
	"asur-wears/internal/service"
	"asur-wears/internal/store"
	"asur-wears/internal/util"
	"asur-wears/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting Asur Wears storefront", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint, cfg.Observ.TracingEnabled)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	db, err := store.NewStore(startCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	}()
	logger.Info("MongoDB connected", zap.String("database", cfg.Mongo.Database))

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer, cfg.Kafka.TopicOrder, cfg.Kafka.TopicNotify)
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

	pricing, err := service.LoadPricing(cfg.Business.PricingFile)
	if err != nil {
		logger.Fatal("Failed to load pricing", zap.Error(err))
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = auth.RandomSecret()
		if err != nil {
			logger.Fatal("Failed to generate JWT secret", zap.Error(err))
		}
		logger.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}
	tokens := auth.NewTokenManager(secret, cfg.Auth.JWTTTL)

	images, err := media.NewImageStore(cfg.Upload.Dir, cfg.Server.PublicBaseURL, cfg.Upload.MaxBytes)
	if err != nil {
		logger.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	analyticsService := service.NewAnalyticsService(db)
	productService := service.NewProductService(db, images)
	orderService := service.NewOrderService(db, db, pricing, redisClient, redisClient, eventPublisher, analyticsService)
	authService := service.NewAuthService(db, tokens,
		service.Credentials{Email: cfg.Auth.AdminEmail, Password: cfg.Auth.AdminPassword},
		service.Credentials{Email: cfg.Auth.ManagerEmail, Password: cfg.Auth.ManagerPassword},
	)
	otpService := service.NewOTPService(db, authService, redisClient, eventPublisher, service.OTPConfig{
		TTL:      cfg.Business.OTPTTL,
		MaxSends: cfg.Business.OTPMaxSends,
		Window:   cfg.Business.OTPWindow,
	})
	dashboardService := service.NewDashboardService(db, analyticsService)
	campaignService := service.NewCampaignService(db, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notifyConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotify, cfg.Kafka.ConsumerGroup)
	notifyWorker := worker.NewNotificationWorker(notifyConsumer, notify.NewMailer(cfg.Mail, util.Named("mail")))
	go func() {
		if err := notifyWorker.Start(workerCtx); err != nil {
			logger.Error("Notification worker stopped", zap.Error(err))
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Products:  productService,
		Orders:    orderService,
		Auth:      authService,
		OTP:       otpService,
		Analytics: analyticsService,
		Dashboard: dashboardService,
		Campaigns: campaignService,
		Tokens:    tokens,
	}, api.Options{
		UploadDir:      images.Dir(),
		MaxUploadBytes: images.MaxBytes(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		Readiness: map[string]api.Pinger{
			"mongo": db,
			"redis": redisClient,
		},
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := notifyWorker.Stop(); err != nil {
		logger.Warn("Error closing notification consumer", zap.Error(err))
	}

	logger.Info("Server exited")
}
