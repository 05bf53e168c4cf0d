package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document is a file attached to a task, stored in S3.
type Document struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`

	Filename   string `gorm:"type:text;not null" json:"filename"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`

	// S3 object metadata: bucket, key, etag, sha256, mime, size_b.
	AssetMeta datatypes.JSONMap `gorm:"type:jsonb;not null" swaggertype:"object" json:"asset_meta"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Task *Task `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"task,omitempty"`
}

func (Document) TableName() string { return "documents" }
