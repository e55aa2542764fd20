package models

import (
	"time"

	"gorm.io/gorm"
)

type JobStatus string

const (
	JobActive    JobStatus = "active"
	JobOnHold    JobStatus = "on_hold"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

// Job — заказ-наряд клиента; к нему привязываются задачи и материалы.
type Job struct {
	gorm.Model
	Title        string    `gorm:"size:255;not null" json:"title"`
	CustomerName string    `gorm:"size:255" json:"customer_name"`
	Description  string    `gorm:"type:text" json:"description"`
	Status       JobStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	Materials []JobMaterial `json:"materials,omitempty"`
	Tasks     []Task        `json:"tasks,omitempty"`
}

type JobMaterial struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	JobID uint `gorm:"index" json:"job_id"`

	Name        string     `gorm:"size:255;not null" json:"name"`
	IssuedAt    *time.Time `json:"issued_at"`
	Description string     `gorm:"type:text" json:"description"`
	Quantity    float64    `json:"quantity"`
	Rate        float64    `json:"rate"`
	Amount      float64    `json:"amount"` // всегда quantity * rate, считается на сервере
}
