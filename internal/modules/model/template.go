package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProjectTemplate is a reusable engagement blueprint. Instantiating one
// creates the project's working steps, tasks and approval chains.
type ProjectTemplate struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string    `gorm:"type:text;not null" json:"name"`
	Slug string    `gorm:"type:text;uniqueIndex;not null" json:"slug"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Steps []TemplateStep `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"steps,omitempty"`
}

func (ProjectTemplate) TableName() string { return "project_templates" }

type TemplateStep struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_template_step_order,priority:1" json:"template_id"`

	StepOrder int    `gorm:"not null;uniqueIndex:uq_template_step_order,priority:2" json:"step_order"`
	Name      string `gorm:"type:text;not null" json:"name"`

	Tasks []TemplateTask `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"tasks,omitempty"`
}

func (TemplateStep) TableName() string { return "template_steps" }

type TemplateTask struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TemplateStepID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_template_task_order,priority:1" json:"template_step_id"`

	TaskOrder      int    `gorm:"not null;uniqueIndex:uq_template_task_order,priority:2" json:"task_order"`
	Name           string `gorm:"type:text;not null" json:"name"`
	IsRequired     bool   `gorm:"not null;default:true" json:"is_required"`
	ClientInteract string `gorm:"type:text;not null;default:'read only';check:client_interact IN ('read only','restricted','upload','approval')" json:"client_interact"`

	// Ordered approval levels to stamp onto instantiated tasks:
	// [{"order":1,"role":"team leader"},{"order":2,"role":"manager"}]
	ApprovalChain datatypes.JSONSlice[TemplateApprovalLevel] `gorm:"type:jsonb;not null;default:'[]'" swaggertype:"array,object" json:"approval_chain"`
}

func (TemplateTask) TableName() string { return "template_tasks" }

type TemplateApprovalLevel struct {
	Order int    `json:"order"`
	Role  string `json:"role"`
}
