package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL       = errors.New("невалидный URL")
	ErrInvalidID        = errors.New("невалидный идентификатор ссылки")
	ErrInvalidStatus    = errors.New("невалидный статус ссылки")
	ErrExhaustedRetries = errors.New("исчерпаны попытки генерации идентификатора")
)

// Константы сервиса
const (
	idLength        = 6  // Длина идентификатора (совпадает с nanoid(6) клиента)
	maxIDAttempts   = 5  // Максимум последовательных коллизий до ошибки
	linkCacheTTL    = 24 * time.Hour
	defaultPageSize = 20
	maxPageSize     = 100
)

// Клиентские идентификаторы: алфавит nanoid
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,21}$`)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	ResolveLink(ctx context.Context, id string) (*models.Link, error)
	ListLinks(ctx context.Context, q models.ListLinksQuery) ([]models.Link, int64, error)
	SetLinkStatus(ctx context.Context, id, ownerID, status string) error
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo   repository.LinkRepository
	cacheRepo  repository.CacheRepository
	creditRepo repository.CreditRepository
	logger     *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	creditRepo repository.CreditRepository,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		linkRepo:   linkRepo,
		cacheRepo:  cacheRepo,
		creditRepo: creditRepo,
		logger:     logger,
	}
}

// CreateLink создаёт короткую ссылку, списав один кредит владельца.
// Порядок: аккаунт -> списание -> вставка; при неудачной вставке
// кредит возвращается компенсирующим начислением.
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	originalURL, err := normalizeURL(input.OriginalURL)
	if err != nil {
		return nil, err
	}

	// Клиент может прислать свой id (nanoid на его стороне)
	if input.LinkID != "" && !idPattern.MatchString(input.LinkID) {
		return nil, ErrInvalidID
	}

	// Первый аутентифицированный запрос создаёт аккаунт с бонусом
	if _, err := s.creditRepo.EnsureAccount(ctx, input.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	if _, err := s.creditRepo.Debit(ctx, input.OwnerID, 1, "link_created"); err != nil {
		return nil, err
	}

	link, err := s.insertWithRetry(ctx, input.LinkID, originalURL, input.OwnerID)
	if err != nil {
		s.refund(ctx, input.OwnerID)
		return nil, err
	}

	// Кэширование best-effort: промах кэша не ломает создание
	if cacheErr := s.cacheRepo.SetLink(ctx, link, linkCacheTTL); cacheErr != nil {
		s.logger.Warn("Не удалось закэшировать ссылку", zap.String("id", link.ID), zap.Error(cacheErr))
	}

	return link, nil
}

// insertWithRetry вставляет ссылку, при коллизии сгенерированного id
// пробует новый. Коллизия клиентского id - ошибка без retry.
func (s *linkService) insertWithRetry(ctx context.Context, requestedID, originalURL, ownerID string) (*models.Link, error) {
	if requestedID != "" {
		link := newLink(requestedID, originalURL, ownerID)
		if err := s.linkRepo.Create(ctx, link); err != nil {
			return nil, err
		}
		return link, nil
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := gonanoid.New(idLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}

		link := newLink(id, originalURL, ownerID)
		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrLinkExists) {
			return nil, err
		}

		s.logger.Warn("Коллизия идентификатора, повторная генерация",
			zap.String("id", id),
			zap.Int("attempt", attempt+1),
		)
	}

	// Сигнал, что длину/алфавит пора увеличивать
	return nil, ErrExhaustedRetries
}

// refund компенсирующее начисление после неудачной вставки
func (s *linkService) refund(ctx context.Context, ownerID string) {
	if _, err := s.creditRepo.Credit(ctx, ownerID, 1, "link_refund"); err != nil {
		s.logger.Error("Не удалось вернуть кредит после ошибки создания",
			zap.String("user_id", ownerID),
			zap.Error(err),
		)
	}
}

// ResolveLink находит активную ссылку для редиректа (кэш, затем БД).
// Отключённая ссылка неотличима от несуществующей.
func (s *linkService) ResolveLink(ctx context.Context, id string) (*models.Link, error) {
	link, err := s.cacheRepo.GetLink(ctx, id)
	if err != nil {
		link, err = s.linkRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		s.cacheRepo.SetLink(ctx, link, linkCacheTTL)
	}

	if link.Status != models.LinkStatusActive {
		return nil, repository.ErrLinkNotFound
	}

	return link, nil
}

// ListLinks возвращает страницу ссылок пользователя с поиском по
// подстроке id или URL
func (s *linkService) ListLinks(ctx context.Context, q models.ListLinksQuery) ([]models.Link, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	return s.linkRepo.ListByOwner(ctx, q)
}

// SetLinkStatus мягко включает/отключает ссылку
func (s *linkService) SetLinkStatus(ctx context.Context, id, ownerID, status string) error {
	if status != models.LinkStatusActive && status != models.LinkStatusDisabled {
		return ErrInvalidStatus
	}

	if err := s.linkRepo.SetStatus(ctx, id, ownerID, status); err != nil {
		return err
	}

	// Кэш мог держать прежний статус
	if err := s.cacheRepo.DeleteLink(ctx, id); err != nil {
		s.logger.Warn("Не удалось сбросить кэш ссылки", zap.String("id", id), zap.Error(err))
	}

	return nil
}

func newLink(id, originalURL, ownerID string) *models.Link {
	return &models.Link{
		ID:          id,
		OriginalURL: originalURL,
		OwnerID:     ownerID,
		Status:      models.LinkStatusActive,
		CreatedAt:   time.Now().UTC(),
	}
}

// normalizeURL добавляет https:// к адресу без схемы. Другой
// нормализации нет: доступность адреса не проверяется.
func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
		return "", ErrInvalidURL
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, nil
	}

	return "https://" + trimmed, nil
}
