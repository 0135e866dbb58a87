package handler

import (
	"net/http"

	"github.com/SergeiKhy/graby-backend/internal/middleware"
	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	authorize      func(c *gin.Context, requestedUserID string) bool
	logger         *zap.Logger
}

func NewPaymentHandler(
	paymentService service.PaymentService,
	authorize func(c *gin.Context, requestedUserID string) bool,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		authorize:      authorize,
		logger:         logger,
	}
}

type CreateOrderRequest struct {
	// Сумма в минорных единицах (пайсы)
	Amount int64 `json:"amount" binding:"required"`
}

type CreateOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type AddCreditsRequest struct {
	UID            string                `json:"uid" binding:"required"`
	PlanName       string                `json:"planName"`
	Credits        int64                 `json:"credits" binding:"required"`
	Price          int64                 `json:"price"`
	PaymentDetails models.PaymentDetails `json:"paymentDetails" binding:"required"`
}

// CreateOrder создаёт ордер в платёжном шлюзе
// POST /api/create-order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
		})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), userID, req.Amount)
	if err != nil {
		h.logger.Error("Failed to create payment order", zap.String("user_id", userID), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, CreateOrderResponse{
		ID:       order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
	})
}

// AddCredits проверяет callback оплаты и начисляет кредиты.
// Идемпотентен: повторный callback того же ордера получает 409.
// POST /api/add-credits
func (h *PaymentHandler) AddCredits(c *gin.Context) {
	var req AddCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if !h.authorize(c, req.UID) {
		return
	}

	newCredits, err := h.paymentService.VerifyAndApply(
		c.Request.Context(),
		req.UID,
		req.PlanName,
		req.Credits,
		req.Price,
		req.PaymentDetails,
	)
	if err != nil {
		h.logger.Warn("Failed to apply payment",
			zap.String("user_id", req.UID),
			zap.String("order_id", req.PaymentDetails.RazorpayOrderID),
			zap.Error(err),
		)
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"newCredits": newCredits})
}
