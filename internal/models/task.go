package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string
type TaskPriority string
type CompletionType string
type ProofStatus string

const (
	StatusPlanned    TaskStatus = "Planned"
	StatusPending    TaskStatus = "Pending"
	StatusNotStarted TaskStatus = "Not Started"
	StatusInProgress TaskStatus = "In Progress"
	StatusPaused     TaskStatus = "Paused"
	StatusCompleted  TaskStatus = "Completed"

	PriorityHigh   TaskPriority = "High"
	PriorityMedium TaskPriority = "Medium"
	PriorityLow    TaskPriority = "Low"

	CompletionWithProof    CompletionType = "with_proof"
	CompletionWithoutProof CompletionType = "without_proof"

	ProofPending  ProofStatus = "Pending"
	ProofApproved ProofStatus = "Approved"
	ProofRejected ProofStatus = "Rejected"
)

type Task struct {
	gorm.Model
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Priority       TaskPriority   `gorm:"type:varchar(20);not null" json:"priority"`
	Status         TaskStatus     `gorm:"type:varchar(30);not null" json:"status"`
	CompletionType CompletionType `gorm:"type:varchar(30);not null;default:'without_proof'" json:"completion_type"`

	DueDate           *time.Time `json:"due_date"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	EstimatedDuration string     `gorm:"size:50" json:"estimated_duration"`
	AssigningDuration string     `gorm:"size:50" json:"time_assigning_duration"`

	// легаси-поле: первый из назначенных, дублирует TaskAssignee
	AssignedToID uint           `gorm:"index" json:"assigned_to_id"`
	Assignees    []TaskAssignee `json:"assignees,omitempty"`

	// учёт времени; Progress имеет смысл только в статусе In Progress
	ProgressPercentage *int       `json:"progress_percentage"`
	StartedAt          *time.Time `json:"started_at"`
	LastPauseAt        *time.Time `json:"last_pause_at"`
	// интервал в каноническом текстовом виде (HH:MM:SS);
	// при чтении принимаются и легаси-миллисекунды, см. taskclock.ParseDuration
	TotalPauseDuration string     `gorm:"size:50;default:'00:00:00'" json:"total_pause_duration"`
	CompletedAt        *time.Time `json:"completed_at"`

	// геолокация (опционально)
	RequiredLatitude  *float64       `json:"required_latitude"`
	RequiredLongitude *float64       `json:"required_longitude"`
	RequiredRadius    *float64       `json:"required_radius"`
	AutoCheckIn       bool           `gorm:"default:false" json:"auto_check_in"`
	AutoCheckOut      bool           `gorm:"default:false" json:"auto_check_out"`
	Locations         []TaskLocation `json:"locations,omitempty"`

	// подтверждение выполнения
	Proofs      []TaskProof      `json:"proofs,omitempty"`
	ProofURL    string           `gorm:"size:512" json:"proof_url"`
	ProofNotes  string           `gorm:"type:text" json:"proof_notes"`
	Attachments []TaskAttachment `json:"attachments,omitempty"`

	// автоперенос: исходный срок фиксируется один раз
	OriginalDueDate *time.Time `json:"original_due_date"`

	JobID *uint `gorm:"index" json:"job_id"`

	CreatedByID uint `json:"created_by_id"`
}

// TaskAssignee — связь "задача → исполнитель" (многие-ко-многим).
type TaskAssignee struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TaskID uint `gorm:"index:idx_task_user,unique" json:"task_id"`
	UserID uint `gorm:"index:idx_task_user,unique" json:"user_id"`

	User User `json:"user,omitempty"`
}

// Geofence — именованная круговая зона для контроля присутствия.
type Geofence struct {
	gorm.Model
	Name      string  `gorm:"size:255;not null" json:"name"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Radius    float64 `gorm:"not null" json:"radius"` // метры
}

type TaskLocation struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TaskID uint `gorm:"index" json:"task_id"`

	GeofenceID *uint     `json:"geofence_id"`
	Geofence   *Geofence `json:"geofence,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`

	RequireArrival   bool `gorm:"default:false" json:"require_arrival"`
	RequireDeparture bool `gorm:"default:false" json:"require_departure"`
}

type TaskProof struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TaskID uint `gorm:"index" json:"task_id"`

	ImageURL    string `gorm:"size:512;not null" json:"image_url"`
	Description string `gorm:"type:text" json:"description"`

	SubmittedByID uint        `json:"submitted_by_id"`
	Status        ProofStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`

	ReviewedByID    *uint      `json:"reviewed_by_id"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
}

type TaskAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	TaskID uint `gorm:"index" json:"task_id"`

	FileName     string `gorm:"size:255;not null" json:"file_name"`
	FileSize     int64  `json:"file_size"`
	MimeType     string `gorm:"size:100" json:"mime_type"`
	URL          string `gorm:"size:512" json:"url"`
	UploadedByID uint   `json:"uploaded_by_id"`
}
