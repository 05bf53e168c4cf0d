package model

import (
	"time"

	"github.com/google/uuid"
)

// Versioned is embedded by every entity participating in the optimistic
// concurrency protocol. Version only moves through the guarded update path
// (repo.UpdateGuarded); a successful write increments it by exactly one.
type Versioned struct {
	Version        int        `gorm:"not null;default:0" json:"version"`
	LastModifiedBy *uuid.UUID `gorm:"type:uuid" json:"last_modified_by"`
	LastModifiedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_modified_at"`
}
