package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkingStep struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_project_step_order,priority:1" json:"project_id"`

	StepOrder int    `gorm:"not null;uniqueIndex:uq_project_step_order,priority:2" json:"step_order"`
	Name      string `gorm:"type:text;not null" json:"name"`

	// IsLocked transitions to false only when every required task of the
	// previous-order step is completed. The minimum-order step of a project
	// is never locked.
	IsLocked bool `gorm:"not null;default:true" json:"is_locked"`

	// Parent display snapshots, frozen at creation.
	ProjectName string `gorm:"type:text;not null" json:"project_name"`
	ClientName  string `gorm:"type:text;not null" json:"client_name"`

	Versioned

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// WorkingStep <-> Project
	Project *Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"project,omitempty"`

	// WorkingStep <-> Task
	Tasks []Task `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"tasks,omitempty"`
}

func (WorkingStep) TableName() string { return "working_steps" }
