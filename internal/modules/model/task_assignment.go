package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskAssignment is the submission record tied to a task: created on first
// submission, updated on every revision/approval/return cycle.
type TaskAssignment struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"task_id"`

	MakerID   uuid.UUID `gorm:"type:uuid;not null" json:"maker_id"`
	MakerRole string    `gorm:"type:text;not null" json:"maker_role"`

	Comments string `gorm:"type:text" json:"comments"`
	Notes    string `gorm:"type:text" json:"notes"`

	SubmittedAt *time.Time `json:"submitted_at"`
	ReturnedAt  *time.Time `json:"returned_at"`

	Versioned

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Task *Task `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"task,omitempty"`
}

func (TaskAssignment) TableName() string { return "task_assignments" }
