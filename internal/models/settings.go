package models

import "gorm.io/datatypes"

// Settings holds the restaurant info shown on the public menu. At most one row
// per restaurant, enforced by the unique index.
type Settings struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	RestaurantID   *uint          `gorm:"uniqueIndex" json:"restaurant_id"`
	RestaurantName *string        `gorm:"size:255" json:"restaurant_name"`
	Address        *string        `gorm:"type:text" json:"address"`
	Phone          *string        `gorm:"size:50" json:"phone"`
	OpeningHours   datatypes.JSON `gorm:"type:jsonb" json:"opening_hours"`
	FacebookURL    *string        `gorm:"type:text" json:"facebook_url"`
	InstagramURL   *string        `gorm:"type:text" json:"instagram_url"`
	OtherSocial    *string        `gorm:"type:text" json:"other_social"`
	LogoURL        *string        `gorm:"type:text" json:"logo_url"`
}

func (Settings) TableName() string {
	return "settings"
}
