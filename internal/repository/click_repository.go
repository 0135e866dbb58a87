package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/graby-backend/internal/models"
)

// ClickRepository append-only журнал кликов плюс агрегации для аналитики
type ClickRepository interface {
	RecordClick(ctx context.Context, click *models.Click) error
	GetDailyVisits(ctx context.Context, ownerID string) ([]models.DailyVisits, error)
	GetLocationVisits(ctx context.Context, ownerID string) ([]models.LocationVisits, error)
	GetBreakdown(ctx context.Context, ownerID, column string) (map[string]int64, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_id, owner_id, ip_address, user_agent, referer,
			city, lat, lng, device, browser, os, network, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var city *string
	var lat, lng *float64
	if click.Location != nil {
		city = &click.Location.City
		lat = &click.Location.Lat
		lng = &click.Location.Lng
	}

	_, err := r.db.Pool.Exec(ctx, query,
		click.LinkID,
		click.OwnerID,
		click.IPAddress,
		click.UserAgent,
		click.Referer,
		city,
		lat,
		lng,
		click.Device,
		click.Browser,
		click.OS,
		click.Network,
		click.ClickedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

// GetDailyVisits клики по календарным дням, по возрастанию даты.
// Считаются все клики, включая клики без геолокации.
func (r *clickRepository) GetDailyVisits(ctx context.Context, ownerID string) ([]models.DailyVisits, error) {
	query := `
		SELECT DATE(clicked_at) AS day, COUNT(*) AS visits
		FROM clicks
		WHERE owner_id = $1
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily visits: %w", err)
	}
	defer rows.Close()

	var visits []models.DailyVisits
	for rows.Next() {
		var v models.DailyVisits
		if err := rows.Scan(&v.Date, &v.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily visits: %w", err)
		}
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily visits: %w", err)
	}

	return visits, nil
}

// GetLocationVisits клики, сгруппированные по городу и координатам
// (округление до 4 знаков). Клики без геолокации сюда не попадают.
func (r *clickRepository) GetLocationVisits(ctx context.Context, ownerID string) ([]models.LocationVisits, error) {
	query := `
		SELECT city,
			ROUND(lat::numeric, 4)::float8 AS lat,
			ROUND(lng::numeric, 4)::float8 AS lng,
			COUNT(*) AS visits
		FROM clicks
		WHERE owner_id = $1 AND city IS NOT NULL AND lat IS NOT NULL AND lng IS NOT NULL
		GROUP BY city, ROUND(lat::numeric, 4), ROUND(lng::numeric, 4)
		ORDER BY visits DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get location visits: %w", err)
	}
	defer rows.Close()

	var visits []models.LocationVisits
	for rows.Next() {
		var v models.LocationVisits
		if err := rows.Scan(&v.City, &v.Lat, &v.Lng, &v.Count); err != nil {
			return nil, fmt.Errorf("failed to scan location visits: %w", err)
		}
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating location visits: %w", err)
	}

	return visits, nil
}

// GetBreakdown распределение кликов по значению одного из
// классификационных полей (device, browser, network)
func (r *clickRepository) GetBreakdown(ctx context.Context, ownerID, column string) (map[string]int64, error) {
	// Имя колонки не приходит от пользователя, но список всё равно закрыт
	switch column {
	case "device", "browser", "network":
	default:
		return nil, fmt.Errorf("unsupported breakdown column: %s", column)
	}

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM clicks
		WHERE owner_id = $1 AND %s <> ''
		GROUP BY %s
	`, column, column, column)

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s breakdown: %w", column, err)
	}
	defer rows.Close()

	breakdown := make(map[string]int64)
	for rows.Next() {
		var value string
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown: %w", err)
		}
		breakdown[value] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating breakdown: %w", err)
	}

	return breakdown, nil
}
