package model

import (
	"time"

	"github.com/google/uuid"
)

// The four semantic approval states. The stored label strings are
// configurable per task; these constants are the machine-readable state.
const (
	ApprovalPending  = "pending"
	ApprovalProgress = "progress"
	ApprovalReject   = "reject"
	ApprovalComplete = "complete"
)

// Approver roles, ordered by seniority in a typical chain.
const (
	RoleWorker     = "worker"
	RoleTeamLeader = "team leader"
	RoleSupervisor = "supervisor"
	RoleManager    = "manager"
	RolePartner    = "partner"
	RoleClient     = "client"
)

// TaskApproval is one ordered approval level of a task. Structurally
// immutable after instantiation; only ApprovalStatus changes.
type TaskApproval struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_task_role_order,priority:1" json:"task_id"`

	ApprovalOrder int    `gorm:"not null;uniqueIndex:uq_task_role_order,priority:3" json:"approval_order"`
	Role          string `gorm:"type:text;not null;check:role IN ('partner','manager','supervisor','team leader');uniqueIndex:uq_task_role_order,priority:2" json:"role"`

	ApprovalStatus string `gorm:"type:text;not null;default:'pending';check:approval_status IN ('pending','progress','reject','complete')" json:"approval_status"`

	// Per-task custom wording for each of the four states.
	PendingLabel  string `gorm:"type:text;not null;default:'Pending'" json:"pending_label"`
	ProgressLabel string `gorm:"type:text;not null;default:'In Review'" json:"progress_label"`
	RejectLabel   string `gorm:"type:text;not null;default:'Returned'" json:"reject_label"`
	CompleteLabel string `gorm:"type:text;not null;default:'Approved'" json:"complete_label"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Task *Task `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"task,omitempty"`
}

func (TaskApproval) TableName() string { return "task_approvals" }

// Label returns the per-task wording for the level's current state.
func (a *TaskApproval) Label() string {
	switch a.ApprovalStatus {
	case ApprovalProgress:
		return a.ProgressLabel
	case ApprovalReject:
		return a.RejectLabel
	case ApprovalComplete:
		return a.CompleteLabel
	default:
		return a.PendingLabel
	}
}
