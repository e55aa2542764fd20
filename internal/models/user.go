package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleEmployee UserRole = "employee"
)

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`

	FullName string `gorm:"size:255" json:"full_name"`
	Email    string `gorm:"size:255" json:"email"`
	Phone    string `gorm:"size:50" json:"phone"`
	Skills   string `gorm:"type:text" json:"skills"` // навыки через запятую
}

// DeletedUser — архивная запись удалённого сотрудника.
// Причина удаления обязательна, сама строка User после архивации удаляется.
type DeletedUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID   uint     `gorm:"index" json:"user_id"`
	Username string   `gorm:"size:50" json:"username"`
	FullName string   `gorm:"size:255" json:"full_name"`
	Role     UserRole `gorm:"type:varchar(20)" json:"role"`
	Reason   string   `gorm:"type:text;not null" json:"reason"`

	DeletedByID uint `json:"deleted_by_id"`
}
