package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkExists   = errors.New("link id already exists")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id string) (*models.Link, error)
	ListByOwner(ctx context.Context, q models.ListLinksQuery) ([]models.Link, int64, error)
	SetStatus(ctx context.Context, id, ownerID, status string) error
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

// Create вставляет ссылку. Уникальность id обеспечивается PRIMARY KEY,
// а не проверкой чтением - гонка create/create невозможна.
func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (id, original_url, owner_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.OriginalURL,
		link.OwnerID,
		link.Status,
		link.CreatedAt,
	).Scan(&link.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrLinkExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	query := `
		SELECT id, original_url, owner_id, status, created_at
		FROM links
		WHERE id = $1
	`

	link := &models.Link{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&link.ID,
		&link.OriginalURL,
		&link.OwnerID,
		&link.Status,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

// ListByOwner возвращает страницу ссылок пользователя. Сортировка
// (created_at DESC, id DESC) держит границы страниц стабильными при
// конкурентных вставках: новые ссылки попадают только в начало.
func (r *linkRepository) ListByOwner(ctx context.Context, q models.ListLinksQuery) ([]models.Link, int64, error) {
	where := `owner_id = $1 AND (id ILIKE '%' || $2 || '%' OR original_url ILIKE '%' || $2 || '%')`

	var total int64
	countQuery := `SELECT COUNT(*) FROM links WHERE ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, q.OwnerID, q.SearchTerm).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count links: %w", err)
	}

	query := `
		SELECT id, original_url, owner_id, status, created_at
		FROM links
		WHERE ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	offset := (q.Page - 1) * q.PageSize
	rows, err := r.db.Pool.Query(ctx, query, q.OwnerID, q.SearchTerm, q.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]models.Link, 0, q.PageSize)
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.OriginalURL, &link.OwnerID, &link.Status, &link.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating links: %w", err)
	}

	return links, total, nil
}

// SetStatus мягко отключает/включает ссылку. Физического удаления нет,
// чтобы история кликов оставалась целой.
func (r *linkRepository) SetStatus(ctx context.Context, id, ownerID, status string) error {
	query := `UPDATE links SET status = $3 WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Pool.Exec(ctx, query, id, ownerID, status)
	if err != nil {
		return fmt.Errorf("failed to set link status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// isUniqueViolation проверяет код ошибки unique_violation (pgx v5)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
