package service

import (
	"context"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	summaryCacheTTL = 5 * time.Minute
	// Формат меток дат на графике дашборда ("May 05")
	dateLabelFormat = "Jan 02"
)

// AnalyticsService сводная аналитика по всем ссылкам пользователя.
// Чисто производные данные: пересчитываются из журнала кликов,
// кэш сбрасывается процессором кликов при новых событиях.
type AnalyticsService interface {
	Summarize(ctx context.Context, ownerID string) (*models.AnalyticsSummary, error)
}

type analyticsService struct {
	clickRepo repository.ClickRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
}

func NewAnalyticsService(
	clickRepo repository.ClickRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsService{
		clickRepo: clickRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// Summarize собирает временной ряд по дням, разбивку по городам и
// по устройствам. Клики без геолокации не попадают в карту, но
// учитываются во временном ряду.
func (s *analyticsService) Summarize(ctx context.Context, ownerID string) (*models.AnalyticsSummary, error) {
	if cached, err := s.cacheRepo.GetSummary(ctx, ownerID); err == nil {
		return cached, nil
	}

	daily, err := s.clickRepo.GetDailyVisits(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	locations, err := s.clickRepo.GetLocationVisits(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	devices, err := s.clickRepo.GetBreakdown(ctx, ownerID, "device")
	if err != nil {
		return nil, err
	}
	browsers, err := s.clickRepo.GetBreakdown(ctx, ownerID, "browser")
	if err != nil {
		return nil, err
	}
	networks, err := s.clickRepo.GetBreakdown(ctx, ownerID, "network")
	if err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{
		VisitorsByDate:     buildVisitorsByDate(daily),
		VisitorsByLocation: locations,
		DeviceInfo: models.DeviceInfo{
			Devices:  devices,
			Browsers: browsers,
			Networks: networks,
		},
	}

	if err := s.cacheRepo.SetSummary(ctx, ownerID, summary, summaryCacheTTL); err != nil {
		s.logger.Debug("Не удалось закэшировать сводку аналитики",
			zap.String("owner_id", ownerID),
			zap.Error(err),
		)
	}

	return summary, nil
}

// buildVisitorsByDate репозиторий отдаёт дни по возрастанию,
// здесь только форматирование меток
func buildVisitorsByDate(daily []models.DailyVisits) models.VisitorsByDate {
	series := models.VisitorsByDate{
		Labels: make([]string, 0, len(daily)),
		Data:   make([]int64, 0, len(daily)),
	}

	for _, day := range daily {
		series.Labels = append(series.Labels, day.Date.Format(dateLabelFormat))
		series.Data = append(series.Data, day.Count)
	}

	return series
}
