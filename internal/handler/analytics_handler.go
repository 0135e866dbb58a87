package handler

import (
	"net/http"

	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	authorize        func(c *gin.Context, requestedUserID string) bool
	logger           *zap.Logger
}

func NewAnalyticsHandler(
	analyticsService service.AnalyticsService,
	authorize func(c *gin.Context, requestedUserID string) bool,
	logger *zap.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		authorize:        authorize,
		logger:           logger,
	}
}

// Summarize сводная аналитика по всем ссылкам пользователя
// GET /api/analytics?user_id=
func (h *AnalyticsHandler) Summarize(c *gin.Context) {
	userID := c.Query("user_id")
	if !h.authorize(c, userID) {
		return
	}

	summary, err := h.analyticsService.Summarize(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to summarize analytics", zap.String("user_id", userID), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, summary)
}
