package service_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/SergeiKhy/graby-backend/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAnalyticsService() (service.AnalyticsService, *mocks.MockClickRepository, *mocks.MockCacheRepository) {
	clickRepo := mocks.NewMockClickRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger, _ := zap.NewDevelopment()
	analyticsService := service.NewAnalyticsService(clickRepo, cacheRepo, logger)
	return analyticsService, clickRepo, cacheRepo
}

func recordClick(t *testing.T, clickRepo *mocks.MockClickRepository, click models.Click) {
	t.Helper()
	require.NoError(t, clickRepo.RecordClick(context.Background(), &click))
}

// TestAnalyticsService_Summarize_Empty пустой аккаунт возвращает пустую
// сводку, а не nil-поля
func TestAnalyticsService_Summarize_Empty(t *testing.T) {
	analyticsService, _, _ := setupAnalyticsService()

	summary, err := analyticsService.Summarize(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, summary.VisitorsByDate.Labels)
	assert.Empty(t, summary.VisitorsByDate.Data)
	assert.Empty(t, summary.VisitorsByLocation)
	assert.Empty(t, summary.DeviceInfo.Devices)
}

// TestAnalyticsService_Summarize_DateSeries метки дат в формате "Jan 02"
// по возрастанию
func TestAnalyticsService_Summarize_DateSeries(t *testing.T) {
	analyticsService, clickRepo, _ := setupAnalyticsService()

	day1 := time.Date(2025, 5, 3, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 5, 5, 12, 0, 0, 0, time.UTC)

	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Desktop", ClickedAt: day1})
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Desktop", ClickedAt: day2})
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Mobile", ClickedAt: day2.Add(time.Hour)})

	summary, err := analyticsService.Summarize(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"May 03", "May 05"}, summary.VisitorsByDate.Labels)
	assert.Equal(t, []int64{1, 2}, summary.VisitorsByDate.Data)
}

// TestAnalyticsService_Summarize_Locations клики без геолокации
// учитываются во временном ряду, но не попадают в карту
func TestAnalyticsService_Summarize_Locations(t *testing.T) {
	analyticsService, clickRepo, _ := setupAnalyticsService()

	now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	moscow := &models.Geolocation{City: "Moscow", Lat: 55.7558, Lng: 37.6173}

	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Location: moscow, Device: "Desktop", ClickedAt: now})
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Location: moscow, Device: "Mobile", ClickedAt: now.Add(time.Minute)})
	// Клик с неразрешённым IP
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Desktop", ClickedAt: now.Add(2 * time.Minute)})

	summary, err := analyticsService.Summarize(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, summary.VisitorsByLocation, 1)
	assert.Equal(t, "Moscow", summary.VisitorsByLocation[0].City)
	assert.Equal(t, int64(2), summary.VisitorsByLocation[0].Count)
	// Все три клика в временном ряду
	assert.Equal(t, []int64{3}, summary.VisitorsByDate.Data)
}

// TestAnalyticsService_Summarize_DeviceInfo разбивка по устройствам,
// браузерам и сетям
func TestAnalyticsService_Summarize_DeviceInfo(t *testing.T) {
	analyticsService, clickRepo, _ := setupAnalyticsService()

	now := time.Now().UTC()
	recordClick(t, clickRepo, models.Click{
		LinkID: "abc123", OwnerID: "u1",
		Device: "Mobile", Browser: "Chrome", Network: "Cellular", ClickedAt: now,
	})
	recordClick(t, clickRepo, models.Click{
		LinkID: "abc123", OwnerID: "u1",
		Device: "Desktop", Browser: "Chrome", Network: "WiFi", ClickedAt: now,
	})
	recordClick(t, clickRepo, models.Click{
		LinkID: "abc123", OwnerID: "u1",
		Device: "Desktop", Browser: "Firefox", Network: "WiFi", ClickedAt: now,
	})

	summary, err := analyticsService.Summarize(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Mobile": 1, "Desktop": 2}, summary.DeviceInfo.Devices)
	assert.Equal(t, map[string]int64{"Chrome": 2, "Firefox": 1}, summary.DeviceInfo.Browsers)
	assert.Equal(t, map[string]int64{"Cellular": 1, "WiFi": 2}, summary.DeviceInfo.Networks)
}

// TestAnalyticsService_Summarize_OwnerIsolation чужие клики не попадают
// в сводку
func TestAnalyticsService_Summarize_OwnerIsolation(t *testing.T) {
	analyticsService, clickRepo, _ := setupAnalyticsService()

	now := time.Now().UTC()
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Desktop", ClickedAt: now})
	recordClick(t, clickRepo, models.Click{LinkID: "xyz789", OwnerID: "u2", Device: "Mobile", ClickedAt: now})

	summary, err := analyticsService.Summarize(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, summary.VisitorsByDate.Data)
	assert.Equal(t, map[string]int64{"Desktop": 1}, summary.DeviceInfo.Devices)
}

// TestAnalyticsService_Summarize_CacheHit повторный запрос отдаётся из
// кэша без пересчёта
func TestAnalyticsService_Summarize_CacheHit(t *testing.T) {
	analyticsService, clickRepo, cacheRepo := setupAnalyticsService()
	ctx := context.Background()

	now := time.Now().UTC()
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Desktop", ClickedAt: now})

	first, err := analyticsService.Summarize(ctx, "u1")
	require.NoError(t, err)

	// Новый клик без сброса кэша не виден
	recordClick(t, clickRepo, models.Click{LinkID: "abc123", OwnerID: "u1", Device: "Mobile", ClickedAt: now})

	second, err := analyticsService.Summarize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// После инвалидации сводка пересчитывается
	require.NoError(t, cacheRepo.InvalidateSummary(ctx, "u1"))

	third, err := analyticsService.Summarize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Desktop": 1, "Mobile": 1}, third.DeviceInfo.Devices)
}
