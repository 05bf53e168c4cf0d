package model

import (
	"time"

	"github.com/google/uuid"
)

// Member is an authenticated actor: firm staff or a client contact. The raw
// API key is shown once at creation; only its HMAC digest is stored.
type Member struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name string    `gorm:"type:text;not null" json:"name"`
	Role string    `gorm:"type:text;not null;check:role IN ('worker','team leader','supervisor','manager','partner','client')" json:"role"`

	ApiKeyHMAC string `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string { return "members" }
