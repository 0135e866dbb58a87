package models

import (
	"time"
)

// Статусы ссылки. Ссылки никогда не удаляются физически -
// отключение через Disabled сохраняет историю кликов.
const (
	LinkStatusActive   = "Active"
	LinkStatusDisabled = "Disabled"
)

type Link struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"original_url"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateLinkInput struct {
	LinkID      string `json:"link_id,omitempty"`
	OriginalURL string `json:"original_url" binding:"required"`
	OwnerID     string `json:"user_id" binding:"required"`
}

// ListLinksQuery параметры выборки ссылок пользователя
type ListLinksQuery struct {
	OwnerID    string
	SearchTerm string
	Page       int
	PageSize   int
}
