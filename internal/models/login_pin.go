package models

import "time"

type PinStatus string

const (
	PinPending  PinStatus = "pending"
	PinApproved PinStatus = "approved"
	PinRejected PinStatus = "rejected"
	PinExpired  PinStatus = "expired"
)

// LoginPin — одноразовый код входа сотрудника, живёт 30 секунд.
// Хранится в pin.Store (redis с TTL), в базу не пишется.
type LoginPin struct {
	Code      string    `json:"code"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Status    PinStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
