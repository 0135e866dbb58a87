package models

import (
	"time"
)

// Статусы платёжного ордера. Переход Created -> Verified|Failed
// происходит ровно один раз.
const (
	OrderStatusCreated  = "created"
	OrderStatusVerified = "verified"
	OrderStatusFailed   = "failed"
)

// PaymentOrder локальная копия ордера платёжного шлюза.
// OrderID выдаётся шлюзом и служит ключом идемпотентности.
type PaymentOrder struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"` // в минорных единицах (пайсы)
	Currency  string    `json:"currency"`
	PlanID    string    `json:"plan_id,omitempty"`
	Status    string    `json:"status"`
	PaymentID string    `json:"payment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentDetails callback шлюза после оплаты на стороне клиента
type PaymentDetails struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}
