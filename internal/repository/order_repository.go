package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrOrderNotFound  = errors.New("payment order not found")
	ErrOrderFinalized = errors.New("payment order already finalized")
)

// OrderRepository локальное хранилище ордеров платёжного шлюза.
// Финализация через условный UPDATE: ордер переходит из created
// в verified/failed ровно один раз, повторный callback не проходит.
type OrderRepository interface {
	Create(ctx context.Context, order *models.PaymentOrder) error
	GetByID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	Finalize(ctx context.Context, orderID, status, paymentID string) error
}

type orderRepository struct {
	db *PostgresDB
}

func NewOrderRepository(db *PostgresDB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (order_id, user_id, amount, currency, plan_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		order.OrderID,
		order.UserID,
		order.Amount,
		order.Currency,
		order.PlanID,
		order.Status,
	).Scan(&order.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment order: %w", err)
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	query := `
		SELECT order_id, user_id, amount, currency, plan_id, status, payment_id, created_at
		FROM payment_orders
		WHERE order_id = $1
	`

	order := &models.PaymentOrder{}
	err := r.db.Pool.QueryRow(ctx, query, orderID).Scan(
		&order.OrderID,
		&order.UserID,
		&order.Amount,
		&order.Currency,
		&order.PlanID,
		&order.Status,
		&order.PaymentID,
		&order.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get payment order: %w", err)
	}

	return order, nil
}

// Finalize переводит ордер из created в конечный статус. Условие
// status = 'created' в WHERE делает переход exactly-once.
func (r *orderRepository) Finalize(ctx context.Context, orderID, status, paymentID string) error {
	query := `
		UPDATE payment_orders SET status = $2, payment_id = $3
		WHERE order_id = $1 AND status = $4
	`

	result, err := r.db.Pool.Exec(ctx, query, orderID, status, paymentID, models.OrderStatusCreated)
	if err != nil {
		return fmt.Errorf("failed to finalize order: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Либо ордера нет, либо он уже финализирован
		if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
			return getErr
		}
		return ErrOrderFinalized
	}

	return nil
}
