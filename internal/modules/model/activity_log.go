package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TargetKind enumerates the entity kinds an activity entry may reference.
// A closed set instead of a free-form type string plus generic foreign key.
type TargetKind string

const (
	TargetTask            TargetKind = "task"
	TargetWorkingStep     TargetKind = "working_step"
	TargetDocumentRequest TargetKind = "document_request"
	TargetProject         TargetKind = "project"
)

// TargetRef is the tagged reference to the entity an activity entry is about.
type TargetRef struct {
	Kind TargetKind `gorm:"column:target_kind;type:text;not null;check:target_kind IN ('task','working_step','document_request','project');index:ix_activity_target,priority:1" json:"kind"`
	ID   uuid.UUID  `gorm:"column:target_id;type:uuid;not null;index:ix_activity_target,priority:2" json:"id"`
}

func TaskRef(id uuid.UUID) TargetRef        { return TargetRef{Kind: TargetTask, ID: id} }
func StepRef(id uuid.UUID) TargetRef        { return TargetRef{Kind: TargetWorkingStep, ID: id} }
func DocRequestRef(id uuid.UUID) TargetRef  { return TargetRef{Kind: TargetDocumentRequest, ID: id} }
func ProjectRef(id uuid.UUID) TargetRef     { return TargetRef{Kind: TargetProject, ID: id} }

type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`

	Target  TargetRef `gorm:"embedded" json:"target"`
	Action  string    `gorm:"type:text;not null" json:"action"`
	ActorID uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`

	Detail datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"detail"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
