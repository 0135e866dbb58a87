package models

import (
	"time"
)

// Типы записей в истории кредитов
const (
	CreditEntryEarned = "earned"
	CreditEntrySpent  = "spent"
)

// CreditAccount баланс пользователя. Инвариант: Credits всегда
// равен сумме знаковых amount в истории и не бывает отрицательным.
type CreditAccount struct {
	UserID    string    `json:"user_id"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// CreditEntry одна запись аудиторской истории баланса
type CreditEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"` // earned | spent
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
