package service

import (
	"context"

	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/repository"
)

const creditHistoryLimit = 50

// CreditService операции с балансом для API Gateway. Вся атомарность
// живёт в репозитории, здесь только оркестрация.
type CreditService interface {
	EnsureAccount(ctx context.Context, userID string) (int64, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	GetHistory(ctx context.Context, userID string) ([]models.CreditEntry, error)
}

type creditService struct {
	creditRepo repository.CreditRepository
}

func NewCreditService(creditRepo repository.CreditRepository) CreditService {
	return &creditService{creditRepo: creditRepo}
}

// EnsureAccount первый вызов для пользователя создаёт аккаунт
// с одним бонусным кредитом, повторные возвращают текущий баланс
func (s *creditService) EnsureAccount(ctx context.Context, userID string) (int64, error) {
	return s.creditRepo.EnsureAccount(ctx, userID)
}

func (s *creditService) GetBalance(ctx context.Context, userID string) (int64, error) {
	return s.creditRepo.GetBalance(ctx, userID)
}

func (s *creditService) GetHistory(ctx context.Context, userID string) ([]models.CreditEntry, error) {
	return s.creditRepo.GetHistory(ctx, userID, creditHistoryLimit)
}
