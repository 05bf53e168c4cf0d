package model

import (
	"time"

	"github.com/google/uuid"
)

// Machine-readable task lifecycle. The free-text Status column is a
// human-readable label kept in sync by the workflow service, not an
// independent state machine.
const (
	CompletionPending    = "pending"
	CompletionInProgress = "in_progress"
	CompletionCompleted  = "completed"
)

// How a client may act on a task. Anything outside read only/restricted
// routes final approval to the client instead of straight completion.
const (
	InteractReadOnly   = "read only"
	InteractRestricted = "restricted"
	InteractUpload     = "upload"
	InteractApproval   = "approval"
)

// StatusSubmittedToClient is the terminal label for tasks handed to the
// client after the internal chain completes.
const StatusSubmittedToClient = "Submitted to Client"

type Task struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkingStepID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_step_task_order,priority:1" json:"working_step_id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`

	TaskOrder int    `gorm:"not null;uniqueIndex:uq_step_task_order,priority:2" json:"task_order"`
	Name      string `gorm:"type:text;not null" json:"name"`

	// Human-readable workflow label ("Waiting for Manager", ...).
	Status string `gorm:"type:text;not null;default:''" json:"status"`

	CompletionStatus string `gorm:"type:text;not null;default:'pending';check:completion_status IN ('pending','in_progress','completed')" json:"completion_status"`

	// IsRequired gates unlocking of the next working step.
	IsRequired     bool   `gorm:"not null;default:true" json:"is_required"`
	ClientInteract string `gorm:"type:text;not null;default:'read only';check:client_interact IN ('read only','restricted','upload','approval')" json:"client_interact"`

	ProjectName string `gorm:"type:text;not null" json:"project_name"`
	ClientName  string `gorm:"type:text;not null" json:"client_name"`

	Versioned

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Task <-> WorkingStep
	WorkingStep *WorkingStep `gorm:"foreignKey:WorkingStepID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"working_step,omitempty"`

	// Task <-> TaskApproval (ordered chain)
	Approvals []TaskApproval `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"approvals,omitempty"`

	// Task <-> TaskAssignment
	Assignments []TaskAssignment `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"assignments,omitempty"`

	// Task <-> Document
	Documents []Document `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"documents,omitempty"`
}

func (Task) TableName() string { return "tasks" }

// ClientFacing reports whether the task is handed to the client once the
// internal approval chain completes.
func (t *Task) ClientFacing() bool {
	return t.ClientInteract != InteractReadOnly && t.ClientInteract != InteractRestricted
}
