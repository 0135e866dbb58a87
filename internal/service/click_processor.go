package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/geoip"
	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRecordRetries     = 3    // Максимальное количество попыток записи
)

// ClickProcessor асинхронный конвейер записи кликов. Запись идёт в
// фоне на собственном контексте: отключение браузера до завершения
// редиректа не теряет событие. Потеря события при переполнении буфера
// допустима, сломанный редирект - нет.
type ClickProcessor interface {
	Start()
	Stop()
	RecordClick(ctx context.Context, event *models.ClickEvent) error
	GetChannelStats() ChannelStats
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	clickRepo    repository.ClickRepository
	cacheRepo    repository.CacheRepository
	geoResolver  geoip.Resolver
	logger       *zap.Logger
	clickChannel chan *models.ClickEvent // Канал для событий кликов
	workerCount  int                     // Количество воркеров
	wg           sync.WaitGroup          // WaitGroup для ожидания завершения воркеров
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewClickProcessor создаёт новый экземпляр процессора кликов
func NewClickProcessor(
	clickRepo repository.ClickRepository,
	cacheRepo repository.CacheRepository,
	geoResolver geoip.Resolver,
	logger *zap.Logger,
) ClickProcessor {
	return &clickProcessor{
		clickRepo:    clickRepo,
		cacheRepo:    cacheRepo,
		geoResolver:  geoResolver,
		logger:       logger,
		clickChannel: make(chan *models.ClickEvent, defaultChannelBuffer),
		workerCount:  defaultWorkerCount,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop корректно останавливает worker pool
func (p *clickProcessor) Stop() {
	p.logger.Info("Остановка процессора кликов...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Процессор кликов остановлен")
}

// worker обрабатывает события кликов из канала
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
			return

		case event, ok := <-p.clickChannel:
			if !ok {
				return
			}
			p.processClick(event)
		}
	}
}

// processClick обогащает событие геолокацией и разбором User-Agent,
// затем пишет его с retry логикой
func (p *clickProcessor) processClick(event *models.ClickEvent) {
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
	defer cancel()

	device, browser, os := ClassifyUserAgent(event.UserAgent)

	click := &models.Click{
		LinkID:    event.LinkID,
		OwnerID:   event.OwnerID,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Referer:   event.Referer,
		Location:  p.geoResolver.Lookup(event.IPAddress),
		Device:    device,
		Browser:   browser,
		OS:        os,
		Network:   ClassifyNetwork(device),
		ClickedAt: time.Now().UTC(),
	}

	// Retry логика для записи в БД
	var err error
	for i := 0; i < maxRecordRetries; i++ {
		if err = p.clickRepo.RecordClick(ctx, click); err == nil {
			// Сводка аналитики владельца устарела
			if cacheErr := p.cacheRepo.InvalidateSummary(ctx, event.OwnerID); cacheErr != nil {
				p.logger.Debug("Не удалось сбросить кэш аналитики",
					zap.String("owner_id", event.OwnerID),
					zap.Error(cacheErr),
				)
			}
			return
		}
		if i < maxRecordRetries-1 {
			p.logger.Debug("Повторная попытка записи клика",
				zap.String("link_id", event.LinkID),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}

	// Best-effort: ошибка уходит в операционный лог, не пользователю
	p.logger.Error("Не удалось записать клик после всех попыток",
		zap.String("link_id", event.LinkID),
		zap.Error(err),
	)
}

// RecordClick отправляет событие клика в worker pool (неблокирующая операция)
func (p *clickProcessor) RecordClick(ctx context.Context, event *models.ClickEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.clickChannel <- event:
		return nil
	default:
		// Канал заполнен, логируем предупреждение, но не блокируем запрос
		p.logger.Warn("Буфер канала кликов заполнен, событие потеряно",
			zap.String("link_id", event.LinkID),
		)
		return nil // Не прерываем редирект, просто теряем статистику
	}
}

// GetChannelStats возвращает статистику канала для мониторинга
func (p *clickProcessor) GetChannelStats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.clickChannel),
		BufferUsed:  len(p.clickChannel),
		WorkerCount: p.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`  // Общая ёмкость канала
	BufferUsed  int `json:"buffer_used"`  // Текущее использование
	WorkerCount int `json:"worker_count"` // Количество воркеров
}
