package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/graby-backend/internal/repository"
	"github.com/SergeiKhy/graby-backend/internal/service"
)

// ErrorResponse структурированное тело ошибки. Наружу уходят только
// код и сообщение, никаких stack trace и внутренних идентификаторов.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// translateError единственное место, где ошибки компонентов
// превращаются в HTTP статусы
func translateError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return http.StatusBadRequest, ErrorResponse{"invalid_url", "Invalid URL"}
	case errors.Is(err, service.ErrInvalidID):
		return http.StatusBadRequest, ErrorResponse{"invalid_link_id", "Link id must be 4-21 characters of [a-zA-Z0-9_-]"}
	case errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, ErrorResponse{"invalid_status", "Status must be Active or Disabled"}
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, ErrorResponse{"invalid_amount", "Amount must be positive"}
	case errors.Is(err, service.ErrVerificationFailed):
		return http.StatusBadRequest, ErrorResponse{"verification_failed", "Payment verification failed"}
	case errors.Is(err, repository.ErrLinkNotFound):
		return http.StatusNotFound, ErrorResponse{"not_found", "Link not found"}
	case errors.Is(err, repository.ErrAccountNotFound):
		return http.StatusNotFound, ErrorResponse{"account_not_found", "Credit account not found"}
	case errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound, ErrorResponse{"order_not_found", "Payment order not found"}
	case errors.Is(err, repository.ErrLinkExists):
		return http.StatusConflict, ErrorResponse{"link_exists", "Link id already exists"}
	case errors.Is(err, service.ErrAlreadyProcessed):
		return http.StatusConflict, ErrorResponse{"already_processed", "Payment was already processed"}
	case errors.Is(err, repository.ErrInsufficientCredits):
		return http.StatusUnprocessableEntity, ErrorResponse{"insufficient_credits", "Not enough credits"}
	default:
		return http.StatusInternalServerError, ErrorResponse{"internal_error", "Something went wrong"}
	}
}
