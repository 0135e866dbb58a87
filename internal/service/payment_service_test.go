package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/SergeiKhy/graby-backend/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPaymentService() (service.PaymentService, *mocks.MockOrderRepository, *mocks.MockCreditRepository, *mocks.MockPaymentGateway) {
	orderRepo := mocks.NewMockOrderRepository()
	creditRepo := mocks.NewMockCreditRepository()
	gateway := mocks.NewMockPaymentGateway()
	logger, _ := zap.NewDevelopment()
	paymentService := service.NewPaymentService(orderRepo, creditRepo, gateway, logger)
	return paymentService, orderRepo, creditRepo, gateway
}

// TestPaymentService_CreateOrder проверяет создание ордера в шлюзе
// и локальную копию
func TestPaymentService_CreateOrder(t *testing.T) {
	paymentService, orderRepo, _, _ := setupPaymentService()
	ctx := context.Background()

	order, err := paymentService.CreateOrder(ctx, "u1", 9900)

	require.NoError(t, err)
	assert.NotEmpty(t, order.OrderID)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, int64(9900), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, models.OrderStatusCreated, order.Status)

	stored, err := orderRepo.GetByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, stored.Status)
}

// TestPaymentService_CreateOrder_InvalidAmount нулевая и отрицательная сумма
func TestPaymentService_CreateOrder_InvalidAmount(t *testing.T) {
	paymentService, _, _, _ := setupPaymentService()

	for _, amount := range []int64{0, -100} {
		order, err := paymentService.CreateOrder(context.Background(), "u1", amount)
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
		assert.Nil(t, order)
	}
}

// TestPaymentService_VerifyAndApply_Success успешная оплата начисляет
// кредиты ровно один раз
func TestPaymentService_VerifyAndApply_Success(t *testing.T) {
	paymentService, orderRepo, creditRepo, gateway := setupPaymentService()
	ctx := context.Background()

	creditRepo.EnsureAccount(ctx, "u1") // баланс 1 (бонус)

	order, err := paymentService.CreateOrder(ctx, "u1", 9900)
	require.NoError(t, err)

	details := models.PaymentDetails{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_001",
		RazorpaySignature: gateway.Sign(order.OrderID, "pay_001"),
	}

	newCredits, err := paymentService.VerifyAndApply(ctx, "u1", "Starter", 50, 99, details)
	require.NoError(t, err)
	assert.Equal(t, int64(51), newCredits)

	stored, err := orderRepo.GetByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusVerified, stored.Status)
	assert.Equal(t, "pay_001", stored.PaymentID)
}

// TestPaymentService_VerifyAndApply_Replay повторный callback того же
// ордера не начисляет кредиты повторно
func TestPaymentService_VerifyAndApply_Replay(t *testing.T) {
	paymentService, _, creditRepo, gateway := setupPaymentService()
	ctx := context.Background()

	creditRepo.EnsureAccount(ctx, "u1")

	order, err := paymentService.CreateOrder(ctx, "u1", 9900)
	require.NoError(t, err)

	details := models.PaymentDetails{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_001",
		RazorpaySignature: gateway.Sign(order.OrderID, "pay_001"),
	}

	_, err = paymentService.VerifyAndApply(ctx, "u1", "Starter", 50, 99, details)
	require.NoError(t, err)

	newCredits, err := paymentService.VerifyAndApply(ctx, "u1", "Starter", 50, 99, details)
	assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
	assert.Equal(t, int64(0), newCredits)

	// Баланс не изменился после повтора
	balance, err := creditRepo.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(51), balance)
}

// TestPaymentService_VerifyAndApply_BadSignature неверная подпись
// финализирует ордер как failed без начисления
func TestPaymentService_VerifyAndApply_BadSignature(t *testing.T) {
	paymentService, orderRepo, creditRepo, _ := setupPaymentService()
	ctx := context.Background()

	creditRepo.EnsureAccount(ctx, "u1")

	order, err := paymentService.CreateOrder(ctx, "u1", 9900)
	require.NoError(t, err)

	details := models.PaymentDetails{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_001",
		RazorpaySignature: "forged",
	}

	newCredits, err := paymentService.VerifyAndApply(ctx, "u1", "Starter", 50, 99, details)
	assert.ErrorIs(t, err, service.ErrVerificationFailed)
	assert.Equal(t, int64(0), newCredits)

	stored, err := orderRepo.GetByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, stored.Status)

	balance, err := creditRepo.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), balance)
}

// TestPaymentService_VerifyAndApply_PriceMismatch заявленная цена плана
// должна совпадать с суммой ордера
func TestPaymentService_VerifyAndApply_PriceMismatch(t *testing.T) {
	paymentService, _, creditRepo, gateway := setupPaymentService()
	ctx := context.Background()

	creditRepo.EnsureAccount(ctx, "u1")

	// Ордер на 99 рупий (9900 пайс)
	order, err := paymentService.CreateOrder(ctx, "u1", 9900)
	require.NoError(t, err)

	details := models.PaymentDetails{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_001",
		RazorpaySignature: gateway.Sign(order.OrderID, "pay_001"),
	}

	// Клиент заявляет более дешёвый план
	newCredits, err := paymentService.VerifyAndApply(ctx, "u1", "Starter", 500, 49, details)
	assert.ErrorIs(t, err, service.ErrVerificationFailed)
	assert.Equal(t, int64(0), newCredits)
}

// TestPaymentService_VerifyAndApply_WrongUser ордер нельзя применить
// к чужому аккаунту
func TestPaymentService_VerifyAndApply_WrongUser(t *testing.T) {
	paymentService, _, _, gateway := setupPaymentService()
	ctx := context.Background()

	order, err := paymentService.CreateOrder(ctx, "u1", 9900)
	require.NoError(t, err)

	details := models.PaymentDetails{
		RazorpayOrderID:   order.OrderID,
		RazorpayPaymentID: "pay_001",
		RazorpaySignature: gateway.Sign(order.OrderID, "pay_001"),
	}

	_, err = paymentService.VerifyAndApply(ctx, "u2", "Starter", 50, 99, details)
	assert.ErrorIs(t, err, service.ErrVerificationFailed)
}

// TestPaymentService_VerifyAndApply_UnknownOrder неизвестный ордер
func TestPaymentService_VerifyAndApply_UnknownOrder(t *testing.T) {
	paymentService, _, _, _ := setupPaymentService()

	details := models.PaymentDetails{
		RazorpayOrderID:   "order_unknown",
		RazorpayPaymentID: "pay_001",
		RazorpaySignature: "whatever",
	}

	_, err := paymentService.VerifyAndApply(context.Background(), "u1", "Starter", 50, 99, details)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}
