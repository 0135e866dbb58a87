package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrAccountNotFound     = errors.New("credit account not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// CreditRepository баланс пользователя с аудиторской историей.
// Обе мутации линеаризуемы per-user: проверка и изменение баланса -
// один SQL statement, никакого read-modify-write в процессе.
type CreditRepository interface {
	EnsureAccount(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error)
}

type creditRepository struct {
	db *PostgresDB
}

func NewCreditRepository(db *PostgresDB) CreditRepository {
	return &creditRepository{db: db}
}

// EnsureAccount идемпотентно создаёт аккаунт с 1 бонусным кредитом.
// Проверка существования и создание - один INSERT ON CONFLICT, повторный
// вызов бонус не выдаёт.
func (r *creditRepository) EnsureAccount(ctx context.Context, userID string) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, credits) VALUES ($1, 1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure account: %w", err)
	}

	if result.RowsAffected() == 1 {
		if err := insertHistory(ctx, tx, userID, models.CreditEntryEarned, 1, "signup_bonus"); err != nil {
			return 0, err
		}
	}

	var credits int64
	if err := tx.QueryRow(ctx, `SELECT credits FROM users WHERE user_id = $1`, userID).Scan(&credits); err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return credits, nil
}

// Debit атомарно списывает кредиты. Условие credits >= amount внутри
// UPDATE: из двух конкурентных списаний при балансе 1 пройдёт ровно одно.
func (r *creditRepository) Debit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE users SET credits = credits - $2
		WHERE user_id = $1 AND credits >= $2
		RETURNING credits
	`, userID, amount).Scan(&newBalance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Либо аккаунта нет, либо не хватает баланса
			var exists bool
			if checkErr := r.db.Pool.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists); checkErr != nil {
				return 0, fmt.Errorf("failed to check account: %w", checkErr)
			}
			if !exists {
				return 0, ErrAccountNotFound
			}
			return 0, ErrInsufficientCredits
		}
		return 0, fmt.Errorf("failed to debit credits: %w", err)
	}

	if err := insertHistory(ctx, tx, userID, models.CreditEntrySpent, amount, reason); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return newBalance, nil
}

// Credit атомарно начисляет кредиты с записью в историю
func (r *creditRepository) Credit(ctx context.Context, userID string, amount int64, reason string) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	err = tx.QueryRow(ctx, `
		INSERT INTO users (user_id, credits) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET credits = users.credits + EXCLUDED.credits
		RETURNING credits
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("failed to credit: %w", err)
	}

	if err := insertHistory(ctx, tx, userID, models.CreditEntryEarned, amount, reason); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return newBalance, nil
}

func (r *creditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := r.db.Pool.QueryRow(ctx, `SELECT credits FROM users WHERE user_id = $1`, userID).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return credits, nil
}

func (r *creditRepository) GetHistory(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	query := `
		SELECT id, user_id, type, amount, reason, created_at
		FROM credit_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit history: %w", err)
	}
	defer rows.Close()

	var entries []models.CreditEntry
	for rows.Next() {
		var e models.CreditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Type, &e.Amount, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit history: %w", err)
	}

	return entries, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, userID, entryType string, amount int64, reason string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO credit_history (user_id, type, amount, reason)
		VALUES ($1, $2, $3, $4)
	`, userID, entryType, amount, reason)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}
