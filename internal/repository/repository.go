package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	Pool *pgxpool.Pool
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB config: %w", err)
	}

	// Настрока пула соединений
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{Pool: pool}, nil
}

func (db *PostgresDB) Close() {
	db.Pool.Close()
}

// schema описывает все таблицы сервиса. Атомарность кросс-запросных
// операций выражена ограничениями БД (PK, CHECK), а не блокировками
// в процессе: воркеры масштабируются горизонтально и не делят память.
const schema = `
CREATE TABLE IF NOT EXISTS links (
	id           TEXT PRIMARY KEY,
	original_url TEXT NOT NULL,
	owner_id     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'Active',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_links_owner ON links (owner_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS clicks (
	id         BIGSERIAL PRIMARY KEY,
	link_id    TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	referer    TEXT NOT NULL DEFAULT '',
	city       TEXT,
	lat        DOUBLE PRECISION,
	lng        DOUBLE PRECISION,
	device     TEXT NOT NULL DEFAULT '',
	browser    TEXT NOT NULL DEFAULT '',
	os         TEXT NOT NULL DEFAULT '',
	network    TEXT NOT NULL DEFAULT '',
	clicked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_clicks_owner_date ON clicks (owner_id, clicked_at);

CREATE TABLE IF NOT EXISTS users (
	user_id    TEXT PRIMARY KEY,
	credits    BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS credit_history (
	id         BIGSERIAL PRIMARY KEY,
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL,
	amount     BIGINT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_credit_history_user ON credit_history (user_id, created_at);

CREATE TABLE IF NOT EXISTS payment_orders (
	order_id   TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	amount     BIGINT NOT NULL,
	currency   TEXT NOT NULL,
	plan_id    TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'created',
	payment_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate создаёт схему, если её ещё нет
func (db *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
