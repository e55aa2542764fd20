package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID uint `json:"user_id"`
	User   User `json:"user,omitempty"`

	Entity   string `gorm:"size:50;not null" json:"entity"` // "task", "job", "user", "proof"
	EntityID uint   `json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "status_change", "forward" и т.п.
	Details  string `gorm:"type:text" json:"details"`
}
