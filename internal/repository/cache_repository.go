package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/models"
)

// CacheRepository кэш горячих данных: cache-aside для резолва ссылок
// и кэш агрегированной аналитики с явной инвалидацией при новых кликах.
type CacheRepository interface {
	GetLink(ctx context.Context, id string) (*models.Link, error)
	SetLink(ctx context.Context, link *models.Link, ttl time.Duration) error
	DeleteLink(ctx context.Context, id string) error

	GetSummary(ctx context.Context, ownerID string) (*models.AnalyticsSummary, error)
	SetSummary(ctx context.Context, ownerID string, summary *models.AnalyticsSummary, ttl time.Duration) error
	InvalidateSummary(ctx context.Context, ownerID string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) GetLink(ctx context.Context, id string) (*models.Link, error) {
	data, err := r.redis.Client.Get(ctx, linkKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var link models.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}

	return &link, nil
}

func (r *cacheRepository) SetLink(ctx context.Context, link *models.Link, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	return r.redis.Client.Set(ctx, linkKey(link.ID), data, ttl).Err()
}

func (r *cacheRepository) DeleteLink(ctx context.Context, id string) error {
	return r.redis.Client.Del(ctx, linkKey(id)).Err()
}

func (r *cacheRepository) GetSummary(ctx context.Context, ownerID string) (*models.AnalyticsSummary, error) {
	data, err := r.redis.Client.Get(ctx, summaryKey(ownerID)).Bytes()
	if err != nil {
		return nil, err
	}

	var summary models.AnalyticsSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}

	return &summary, nil
}

func (r *cacheRepository) SetSummary(ctx context.Context, ownerID string, summary *models.AnalyticsSummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	return r.redis.Client.Set(ctx, summaryKey(ownerID), data, ttl).Err()
}

func (r *cacheRepository) InvalidateSummary(ctx context.Context, ownerID string) error {
	return r.redis.Client.Del(ctx, summaryKey(ownerID)).Err()
}

func linkKey(id string) string {
	return "link:" + id
}

func summaryKey(ownerID string) string {
	return "analytics:" + ownerID
}
