package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is the tenant. Every catalog row is scoped by its ID.
type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Subdomain string    `gorm:"size:63;not null;uniqueIndex" json:"subdomain"`
	LogoURL   *string   `gorm:"type:text" json:"logo_url,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}
