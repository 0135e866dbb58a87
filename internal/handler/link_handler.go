package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/graby-backend/internal/middleware"
	"github.com/SergeiKhy/graby-backend/internal/models"
	"github.com/SergeiKhy/graby-backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	linkService    service.LinkService
	creditService  service.CreditService
	clickProcessor service.ClickProcessor
	baseURL        string
	logger         *zap.Logger
}

func NewLinkHandler(
	linkService service.LinkService,
	creditService service.CreditService,
	clickProcessor service.ClickProcessor,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		linkService:    linkService,
		creditService:  creditService,
		clickProcessor: clickProcessor,
		baseURL:        baseURL,
		logger:         logger,
	}
}

// LinkView форма ссылки, которую ожидает дашборд
type LinkView struct {
	ID       string    `json:"id"`
	Original string    `json:"original"`
	Short    string    `json:"short"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
}

type ListLinksResponse struct {
	Links   []LinkView `json:"links"`
	Total   int64      `json:"total"`
	Credits int64      `json:"credits"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *LinkHandler) linkView(link *models.Link) LinkView {
	return LinkView{
		ID:       link.ID,
		Original: link.OriginalURL,
		Short:    h.baseURL + "/" + link.ID,
		Date:     link.CreatedAt,
		Status:   link.Status,
	}
}

// CreateLink создаёт короткую ссылку, списав один кредит
// POST /api/create-link
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var input models.CreateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if !h.authorize(c, input.OwnerID) {
		return
	}

	link, err := h.linkService.CreateLink(c.Request.Context(), &input)
	if err != nil {
		h.logger.Warn("Failed to create link",
			zap.String("user_id", input.OwnerID),
			zap.Error(err),
		)
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, h.linkView(link))
}

// ListLinks возвращает страницу ссылок пользователя вместе с балансом
// GET /api/links?user_id=&search=&page=&page_size=
func (h *LinkHandler) ListLinks(c *gin.Context) {
	userID := c.Query("user_id")
	if !h.authorize(c, userID) {
		return
	}

	// Первый запрос дашборда создаёт аккаунт с бонусным кредитом
	credits, err := h.creditService.EnsureAccount(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to ensure account", zap.String("user_id", userID), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	q := models.ListLinksQuery{
		OwnerID:    userID,
		SearchTerm: c.Query("search"),
		Page:       intQuery(c, "page", 1),
		PageSize:   intQuery(c, "page_size", 0),
	}

	links, total, err := h.linkService.ListLinks(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list links", zap.String("user_id", userID), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	views := make([]LinkView, 0, len(links))
	for i := range links {
		views = append(views, h.linkView(&links[i]))
	}

	c.JSON(http.StatusOK, ListLinksResponse{Links: views, Total: total, Credits: credits})
}

// SetStatus включает/отключает ссылку (мягко, без удаления)
// PATCH /api/links/:id
func (h *LinkHandler) SetStatus(c *gin.Context) {
	userID, _ := middleware.UserFromContext(c)

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	id := c.Param("id")
	if err := h.linkService.SetLinkStatus(c.Request.Context(), id, userID, req.Status); err != nil {
		h.logger.Warn("Failed to set link status", zap.String("id", id), zap.Error(err))
		status, body := translateError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// Redirect резолвит идентификатор и отправляет 302 на оригинальный URL.
// Конечные пользователи попадают сюда напрямую, без дашборда.
// GET /:id
func (h *LinkHandler) Redirect(c *gin.Context) {
	id := c.Param("id")

	link, err := h.linkService.ResolveLink(c.Request.Context(), id)
	if err != nil {
		// Отключённая ссылка неотличима от несуществующей, клик не пишется
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
		return
	}

	// Асинхронная запись клика: событие переживает отключение клиента,
	// а его потеря не ломает редирект
	clickEvent := &models.ClickEvent{
		LinkID:    link.ID,
		OwnerID:   link.OwnerID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	}
	if err := h.clickProcessor.RecordClick(c.Request.Context(), clickEvent); err != nil {
		h.logger.Debug("Failed to record click (non-blocking)", zap.Error(err))
	}

	c.Redirect(http.StatusFound, link.OriginalURL)
}

// authorize проверяет, что user_id запроса совпадает с
// аутентифицированным пользователем
func (h *LinkHandler) authorize(c *gin.Context, requestedUserID string) bool {
	authUser, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
		})
		c.Abort()
		return false
	}

	if requestedUserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_user_id",
			Message: "user_id is required",
		})
		c.Abort()
		return false
	}

	if requestedUserID != authUser {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "user_id does not match the authenticated user",
		})
		c.Abort()
		return false
	}

	return true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
