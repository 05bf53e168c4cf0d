package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DocumentRequestPending   = "pending"
	DocumentRequestUploaded  = "uploaded"
	DocumentRequestCompleted = "completed"
)

// ProjectDocumentRequest is an ad hoc document ask to a client with an
// independent lifecycle: pending -> uploaded (client acts) -> completed
// (firm accepts). Both transitions go through the guarded update path.
type ProjectDocumentRequest struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`

	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"type:text;not null;default:'pending';check:status IN ('pending','uploaded','completed')" json:"status"`

	// S3 metadata of the uploaded document, set on client upload.
	DocumentMeta datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"document_meta"`

	ProjectName string `gorm:"type:text;not null" json:"project_name"`
	ClientName  string `gorm:"type:text;not null" json:"client_name"`

	Versioned

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Project *Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"project,omitempty"`
}

func (ProjectDocumentRequest) TableName() string { return "project_document_requests" }
