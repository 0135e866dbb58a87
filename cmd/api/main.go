package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/config"
	"github.com/SergeiKhy/graby-backend/internal/geoip"
	"github.com/SergeiKhy/graby-backend/internal/handler"
	"github.com/SergeiKhy/graby-backend/internal/middleware"
	"github.com/SergeiKhy/graby-backend/internal/repository"
	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Геолокация по IP: без базы MaxMind клики пишутся без локации
	geoResolver := geoip.NewNoopResolver()
	if cfg.GeoIP.DBPath != "" {
		geoResolver, err = geoip.NewMaxMindResolver(cfg.GeoIP.DBPath)
		if err != nil {
			logger.Fatal("Failed to open GeoIP database", zap.Error(err))
		}
		logger.Info("GeoIP database loaded", zap.String("path", cfg.GeoIP.DBPath))
	}
	defer geoResolver.Close()

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)
	clickRepo := repository.NewClickRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Инициализация сервисов
	linkService := service.NewLinkService(linkRepo, cacheRepo, creditRepo, logger)
	creditService := service.NewCreditService(creditRepo)
	analyticsService := service.NewAnalyticsService(clickRepo, cacheRepo, logger)
	gateway := service.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	paymentService := service.NewPaymentService(orderRepo, creditRepo, gateway, logger)

	// Инициализация процессора кликов (Worker Pool)
	clickProcessor := service.NewClickProcessor(clickRepo, cacheRepo, geoResolver, logger)
	clickProcessor.Start()
	defer clickProcessor.Stop()

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	var authMiddleware gin.HandlerFunc
	if len(cfg.Auth.Tokens) > 0 {
		authMiddleware = middleware.RequireAuth(cfg.Auth.Tokens)
		logger.Info("Token authentication enabled", zap.Int("tokens_count", len(cfg.Auth.Tokens)))
	}

	// Настройка роутера
	router := handler.NewRouter(
		linkService,
		creditService,
		analyticsService,
		paymentService,
		clickProcessor,
		rateLimiter,
		authMiddleware,
		cfg.App.BaseURL,
		logger,
	)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
