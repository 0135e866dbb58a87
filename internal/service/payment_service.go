package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"go.uber.org/zap"
)

// Ошибки платёжного сервиса
var (
	ErrInvalidAmount      = errors.New("невалидная сумма платежа")
	ErrVerificationFailed = errors.New("проверка подписи платежа не прошла")
	ErrAlreadyProcessed   = errors.New("платёж уже обработан")
)

const orderCurrency = "INR"

// PaymentGateway абстракция над платёжным шлюзом (Razorpay в проде,
// мок в тестах)
type PaymentGateway interface {
	CreateOrder(amount int64, currency, receipt string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// PaymentService создание ордеров и идемпотентное начисление кредитов
// после проверенной оплаты
type PaymentService interface {
	CreateOrder(ctx context.Context, userID string, amount int64) (*models.PaymentOrder, error)
	VerifyAndApply(ctx context.Context, userID, planName string, credits, price int64, details models.PaymentDetails) (int64, error)
}

type paymentService struct {
	orderRepo  repository.OrderRepository
	creditRepo repository.CreditRepository
	gateway    PaymentGateway
	logger     *zap.Logger
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	creditRepo repository.CreditRepository,
	gateway PaymentGateway,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		orderRepo:  orderRepo,
		creditRepo: creditRepo,
		gateway:    gateway,
		logger:     logger,
	}
}

// CreateOrder создаёт ордер в шлюзе и сохраняет локальную копию.
// OrderID выдаёт шлюз, он же служит ключом идемпотентности callback'а.
func (s *paymentService) CreateOrder(ctx context.Context, userID string, amount int64) (*models.PaymentOrder, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	orderID, err := s.gateway.CreateOrder(amount, orderCurrency, "credits_"+userID)
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}

	order := &models.PaymentOrder{
		OrderID:  orderID,
		UserID:   userID,
		Amount:   amount,
		Currency: orderCurrency,
		Status:   models.OrderStatusCreated,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("Создан платёжный ордер",
		zap.String("order_id", orderID),
		zap.String("user_id", userID),
		zap.Int64("amount", amount),
	)

	return order, nil
}

// VerifyAndApply проверяет callback шлюза и начисляет кредиты ровно
// один раз. Повторный callback того же ордера получает ErrAlreadyProcessed,
// неверная подпись финализирует ордер как failed без начисления.
func (s *paymentService) VerifyAndApply(ctx context.Context, userID, planName string, credits, price int64, details models.PaymentDetails) (int64, error) {
	if credits <= 0 {
		return 0, ErrInvalidAmount
	}

	order, err := s.orderRepo.GetByID(ctx, details.RazorpayOrderID)
	if err != nil {
		return 0, err
	}

	if order.UserID != userID {
		return 0, ErrVerificationFailed
	}
	if order.Status != models.OrderStatusCreated {
		return 0, ErrAlreadyProcessed
	}
	// Заявленная цена плана (в рупиях) должна совпадать с суммой
	// ордера (в пайсах)
	if price > 0 && order.Amount != price*100 {
		return 0, ErrVerificationFailed
	}

	if !s.gateway.VerifySignature(details.RazorpayOrderID, details.RazorpayPaymentID, details.RazorpaySignature) {
		if finErr := s.orderRepo.Finalize(ctx, order.OrderID, models.OrderStatusFailed, details.RazorpayPaymentID); finErr != nil {
			s.logger.Warn("Не удалось отметить ордер как failed",
				zap.String("order_id", order.OrderID),
				zap.Error(finErr),
			)
		}
		return 0, ErrVerificationFailed
	}

	// Переход created -> verified атомарен: гонка двух callback'ов
	// даст начисление только одному
	if err := s.orderRepo.Finalize(ctx, order.OrderID, models.OrderStatusVerified, details.RazorpayPaymentID); err != nil {
		if errors.Is(err, repository.ErrOrderFinalized) {
			return 0, ErrAlreadyProcessed
		}
		return 0, err
	}

	newBalance, err := s.creditRepo.Credit(ctx, userID, credits, "purchase:"+planName)
	if err != nil {
		return 0, fmt.Errorf("failed to apply credits: %w", err)
	}

	s.logger.Info("Платёж подтверждён, кредиты начислены",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", userID),
		zap.Int64("credits", credits),
	)

	return newBalance, nil
}

// razorpayGateway реализация PaymentGateway поверх официального SDK
type razorpayGateway struct {
	client *razorpay.Client
	secret string
}

func NewRazorpayGateway(keyID, keySecret string) PaymentGateway {
	return &razorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		secret: keySecret,
	}
}

func (g *razorpayGateway) CreateOrder(amount int64, currency, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return "", errors.New("razorpay response has no order id")
	}

	return orderID, nil
}

func (g *razorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, g.secret)
}
