package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`

	Name string `gorm:"type:text;not null" json:"name"`
	Slug string `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Year int    `gorm:"not null" json:"year"`

	// Snapshot of the client display name at creation time. Deliberate
	// read-path denormalization, never updated after insert.
	ClientName string `gorm:"type:text;not null" json:"client_name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Project <-> Client
	Client *Client `gorm:"foreignKey:ClientID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"client,omitempty"`

	// Project <-> WorkingStep
	WorkingSteps []WorkingStep `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"working_steps,omitempty"`

	// Project <-> ProjectDocumentRequest
	DocumentRequests []ProjectDocumentRequest `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"document_requests,omitempty"`
}

func (Project) TableName() string { return "projects" }
