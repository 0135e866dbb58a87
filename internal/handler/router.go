package handler

import (
	"net/http"

	"github.com/SergeiKhy/graby-backend/internal/middleware"
	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	creditService service.CreditService,
	analyticsService service.AnalyticsService,
	paymentService service.PaymentService,
	clickProcessor service.ClickProcessor,
	rateLimiter *middleware.RateLimiter,
	authMiddleware gin.HandlerFunc,
	baseURL string,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования с request id
	router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		logger.Info("Request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	linkHandler := NewLinkHandler(linkService, creditService, clickProcessor, baseURL, logger)
	analyticsHandler := NewAnalyticsHandler(analyticsService, linkHandler.authorize, logger)
	paymentHandler := NewPaymentHandler(paymentService, linkHandler.authorize, logger)
	creditHandler := NewCreditHandler(creditService, linkHandler.authorize, logger)

	// Дашборд-API: всё за аутентификацией
	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck(clickProcessor))

		if authMiddleware != nil {
			api.Use(authMiddleware)
		}
		// Лимит по пользователю, а не по IP: клиенты за общим NAT
		// не мешают друг другу
		api.Use(rateLimiter.MiddlewareByUser())

		api.POST("/create-link", linkHandler.CreateLink)
		api.GET("/links", linkHandler.ListLinks)
		api.PATCH("/links/:id", linkHandler.SetStatus)
		api.GET("/analytics", analyticsHandler.Summarize)
		api.GET("/credits", creditHandler.GetCredits)
		api.POST("/create-order", paymentHandler.CreateOrder)
		api.POST("/add-credits", paymentHandler.AddCredits)
	}

	// Редирект (корневой путь) - публичный, лимит по IP
	router.GET("/:id", rateLimiter.Middleware(), linkHandler.Redirect)

	return router
}

// HealthCheck liveness endpoint со статистикой очереди кликов
func HealthCheck(clickProcessor service.ClickProcessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "graby-backend",
			"clicks":  clickProcessor.GetChannelStats(),
		})
	}
}
