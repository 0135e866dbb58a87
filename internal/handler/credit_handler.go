package handler

import (
	"net/http"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CreditHandler struct {
	creditService service.CreditService
	authorize     func(c *gin.Context, requestedUserID string) bool
	logger        *zap.Logger
}

func NewCreditHandler(
	creditService service.CreditService,
	authorize func(c *gin.Context, requestedUserID string) bool,
	logger *zap.Logger,
) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
		authorize:     authorize,
		logger:        logger,
	}
}

type CreditEntryView struct {
	Type   string    `json:"type"`
	Amount int64     `json:"amount"`
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

type CreditsResponse struct {
	Credits int64             `json:"credits"`
	History []CreditEntryView `json:"history"`
}

// GetCredits баланс и последние движения по кредитам
// GET /api/credits?user_id=
func (h *CreditHandler) GetCredits(c *gin.Context) {
	userID := c.Query("user_id")
	if !h.authorize(c, userID) {
		return
	}

	// Как и список ссылок, этот запрос создаёт аккаунт при первом визите
	credits, err := h.creditService.EnsureAccount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to ensure account", zap.String("user_id", userID), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	entries, err := h.creditService.GetHistory(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load credit history", zap.String("user_id", userID), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	history := make([]CreditEntryView, 0, len(entries))
	for _, entry := range entries {
		history = append(history, CreditEntryView{
			Type:   entry.Type,
			Amount: entry.Amount,
			Reason: entry.Reason,
			Date:   entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, CreditsResponse{Credits: credits, History: history})
}
